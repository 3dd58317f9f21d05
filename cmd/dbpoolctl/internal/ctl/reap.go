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
	"database/sql"

	"github.com/spf13/cobra"

	"github.com/blubskye/dbpool/backend/mysqladapter"
	"github.com/blubskye/dbpool/backend/pgadapter"
	"github.com/blubskye/dbpool/dbpoolconfig"
	mysqllifecycle "github.com/blubskye/dbpool/lifecycle/mysql"
	postgreslifecycle "github.com/blubskye/dbpool/lifecycle/postgres"
)

var reapCmd = &cobra.Command{
	Use:   "reap",
	Short: "Drop every db_pool_ database left over from a prior run",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, engine, err := buildConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		switch engine {
		case dbpoolconfig.MySQL:
			adapter, err := mysqladapter.New(cfg, nil, nil)
			if err != nil {
				return err
			}
			defer adapter.Close()
			eng := mysqllifecycle.New[*sql.DB](adapter, mysqllifecycle.WithLogger[*sql.DB](log))
			return eng.Init(ctx)
		default:
			adapter, err := pgadapter.New(cfg, nil, nil)
			if err != nil {
				return err
			}
			defer adapter.Close()
			eng := postgreslifecycle.New[*sql.DB](adapter, postgreslifecycle.WithLogger[*sql.DB](log))
			return eng.Init(ctx)
		}
	},
}
