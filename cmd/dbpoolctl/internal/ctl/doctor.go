// YSM - Yandere SQL Manager
// Copyright (C) 2025 blubskye
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.
//
// Source code: https://github.com/blubskye/dbpool

package ctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blubskye/dbpool/backend"
	"github.com/blubskye/dbpool/backend/mysqladapter"
	"github.com/blubskye/dbpool/backend/pgadapter"
	"github.com/blubskye/dbpool/dbpoolconfig"
	"github.com/blubskye/dbpool/dialect"
	"github.com/blubskye/dbpool/poolid"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check connectivity and provisioning privileges against the target server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, engine, err := buildConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		var (
			conn backend.Conn
			dia  dialect.Dialect
			host string
		)
		switch engine {
		case dbpoolconfig.MySQL:
			adapter, err := mysqladapter.New(cfg, nil, nil)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer adapter.Close()
			if conn, err = adapter.PrivilegedConn(ctx); err != nil {
				return fmt.Errorf("acquire privileged connection: %w", err)
			}
			dia = adapter.Dialect()
			host = "%"
		default:
			adapter, err := pgadapter.New(cfg, nil, nil)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer adapter.Close()
			if conn, err = adapter.PrivilegedConn(ctx); err != nil {
				return fmt.Errorf("acquire privileged connection: %w", err)
			}
			dia = adapter.Dialect()
		}
		defer conn.Close()
		fmt.Fprintf(out, "[ok] connected to %s server\n", dia.Name())

		if _, err := conn.QueryStrings(ctx, dia.ListPriorDatabases()); err != nil {
			fmt.Fprintf(out, "[fail] list db_pool_ databases: %v\n", err)
			return err
		}
		fmt.Fprintln(out, "[ok] can list db_pool_ databases")

		probe := poolid.New().String()
		if err := conn.Exec(ctx, dia.CreateDatabase(probe)); err != nil {
			fmt.Fprintf(out, "[fail] create database: %v\n", err)
			return err
		}
		fmt.Fprintln(out, "[ok] can create databases")

		if err := conn.ExecBatch(ctx, dia.CreatePrincipal(probe, host, probe)); err != nil {
			fmt.Fprintf(out, "[fail] create principal: %v\n", err)
			_ = conn.Exec(ctx, dia.DropDatabase(probe))
			return err
		}
		fmt.Fprintln(out, "[ok] can create principals")

		if err := conn.ExecBatch(ctx, dia.DropPrincipal(probe, host)); err != nil {
			fmt.Fprintf(out, "[fail] drop principal: %v\n", err)
		} else {
			fmt.Fprintln(out, "[ok] can drop principals")
		}
		if err := conn.Exec(ctx, dia.DropDatabase(probe)); err != nil {
			fmt.Fprintf(out, "[fail] drop database: %v\n", err)
			return err
		}
		fmt.Fprintln(out, "[ok] can drop databases")

		fmt.Fprintln(out, "all checks passed")
		return nil
	},
}
