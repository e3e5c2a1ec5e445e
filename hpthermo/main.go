/*
 * Copyright (c) 2023. Anton Starikov -- All Rights Reserved
 *
 * This file is part of HPTHERMO project.
 *
 * HPTHERMO is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as the Free Software Foundation,
 * either version 3 of the License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/antst/hpthermo/internal"
	"github.com/antst/hpthermo/internal/config"
	"github.com/antst/hpthermo/internal/db"
	"github.com/antst/hpthermo/internal/logger"
	"github.com/antst/hpthermo/internal/safe_mqtt"
)

// Build version, overridden with flag during build.
var version = "devel"

func main() {
	os.Exit(run())
}

func run() int {
	defer logger.Close()
	logger.L().Warnf("Heat pump thermal analysis, version: %+v", version)

	cfg := config.Get()

	store, err := db.OpenDatabase(cfg.DBFile)
	if err != nil {
		logger.L().Fatalf("Opening database: %v", err)
	}
	defer store.Close()

	var client safe_mqtt.MqttClient
	if cfg.MQTT.Enabled() {
		if client, err = safe_mqtt.InitMQTTClient(cfg.MQTT.URL, "hpthermo-"+uuid.New().String()); err != nil {
			logger.L().Errorf("MQTT publication disabled: %v", err)
			client = nil
		} else {
			defer client.SafeDisconnect()
		}
	}

	a, err := internal.NewAnalyzer(cfg, store, client)
	if err != nil {
		logger.L().Errorf("Preparing run: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := a.Run(ctx)
	if err != nil {
		logger.L().Errorf("Run %s aborted: %v", a.RunID(), err)
		return 1
	}
	logger.L().Info(report.String())
	if len(report.Failures()) > 0 {
		return 2
	}
	return 0
}
