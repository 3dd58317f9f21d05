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

// Package ctl is the operator-facing CLI for dbpool: it wraps the library's
// lifecycle engines so someone can reap stale db_pool_ databases, or check
// how many currently exist, without writing Go. It is not part of the
// library's own public API.
package ctl

import (
	"github.com/spf13/cobra"

	"github.com/blubskye/dbpool/internal/zlog"
	"go.uber.org/zap"
)

var (
	engineFlag string
	hostFlag   string
	portFlag   int
	userFlag   string
	passFlag   string
	verbose    bool

	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dbpoolctl",
	Short: "Operator CLI for the dbpool ephemeral-database pool",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "warn"
		if verbose {
			level = "debug"
		}
		log = zlog.New(level)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&engineFlag, "engine", "e", "postgres", "Target engine: mysql or postgres")
	rootCmd.PersistentFlags().StringVarP(&hostFlag, "host", "H", "", "Database host (default: env host or localhost)")
	rootCmd.PersistentFlags().IntVarP(&portFlag, "port", "P", 0, "Database port (default: engine standard port)")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "Privileged username (default: env username or root)")
	rootCmd.PersistentFlags().StringVarP(&passFlag, "password", "p", "", "Privileged password")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(reapCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(doctorCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
