// Copyright 2026 The ldap2fa-proxy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	logging "github.com/op/go-logging"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/sentrygate/ldap2fa-proxy/config"
	"github.com/sentrygate/ldap2fa-proxy/pushers"
	"github.com/sentrygate/ldap2fa-proxy/server"
)

var log = logging.MustGetLogger("ldap2fa-proxy:cmd")

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "config, c",
		Value: "config.toml",
		Usage: "Load configuration from `FILE`",
	},
}

func serve(c *cli.Context) error {
	conf, err := config.LoadFile(c.String("config"))
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("Error loading config file: %s", err), 1)
	}

	bus := pushers.NewEventBus()
	bus.Subscribe(pushers.NewConsole())

	srv, err := server.New(conf, bus)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("Error initializing server: %s", err), 1)
	}

	go func() {
		if err := srv.Run(context.Background()); err != nil {
			log.Errorf("Error running server: %s", err)
		}
	}()

	s := make(chan os.Signal, 1)
	signal.Notify(s, os.Interrupt)
	signal.Notify(s, syscall.SIGTERM)

	<-s

	srv.Stop()

	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "ldap2fa-proxy"
	app.Usage = "transparent LDAP proxy enforcing a second authentication factor"
	app.Flags = globalFlags
	app.Action = serve

	app.RunAndExitOnError()
}
