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

	"github.com/blubskye/dbpool/backend/mysqladapter"
	"github.com/blubskye/dbpool/backend/pgadapter"
	"github.com/blubskye/dbpool/dbpoolconfig"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count db_pool_ databases currently on the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, engine, err := buildConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		var names []string
		switch engine {
		case dbpoolconfig.MySQL:
			adapter, err := mysqladapter.New(cfg, nil, nil)
			if err != nil {
				return err
			}
			defer adapter.Close()
			conn, err := adapter.PrivilegedConn(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()
			if names, err = conn.QueryStrings(ctx, adapter.Dialect().ListPriorDatabases()); err != nil {
				return err
			}
		default:
			adapter, err := pgadapter.New(cfg, nil, nil)
			if err != nil {
				return err
			}
			defer adapter.Close()
			conn, err := adapter.PrivilegedConn(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()
			if names, err = conn.QueryStrings(ctx, adapter.Dialect().ListPriorDatabases()); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d db_pool_ database(s) present\n", len(names))
		return nil
	},
}
