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

	"github.com/blubskye/dbpool/dbpoolconfig"
)

// buildConfig folds the persistent connection flags over the env-derived
// defaults for the selected engine, so dbpoolctl works both zero-config
// (reading MYSQL_*/POSTGRES_* like the library itself does) and with
// explicit overrides.
func buildConfig() (*dbpoolconfig.Config, dbpoolconfig.Engine, error) {
	var engine dbpoolconfig.Engine
	switch engineFlag {
	case "mysql", "mariadb":
		engine = dbpoolconfig.MySQL
	case "postgres", "postgresql":
		engine = dbpoolconfig.Postgres
	default:
		return nil, "", fmt.Errorf("unknown engine %q; want mysql or postgres", engineFlag)
	}

	cfg := dbpoolconfig.FromEnv(engine)
	if hostFlag != "" {
		cfg.Host(hostFlag)
	}
	if portFlag != 0 {
		cfg.Port(portFlag)
	}
	if userFlag != "" {
		cfg = dbpoolconfig.New(userFlag).Host(cfg.HostValue()).Port(cfg.PortValue())
	}
	if passFlag != "" {
		cfg.Password(passFlag)
	}
	return cfg, engine, nil
}
