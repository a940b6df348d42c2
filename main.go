package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
	"github.com/xcono/sqlfilter/builder"
	"github.com/xcono/sqlfilter/schema"
	"github.com/xcono/sqlfilter/web"
	"github.com/xcono/sqlfilter/web/query"
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"

	// database drivers
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

func main() {
	var c schema.Config

	app := &cli.App{
		Name:  "sqlfilter",
		Usage: "Compile JSON filters into SQL",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"f"},
				Value:   "etc/shop.yaml",
				Usage:   "the config file",
			},
		},
		Before: func(cmd *cli.Context) error {
			if err := conf.Load(cmd.String("config"), &c); err != nil {
				return err
			}
			logx.MustSetup(c.Log)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "start",
				Usage: "Start serving the configured service",
				Action: func(cmd *cli.Context) error {
					ctx, stop := signal.NotifyContext(cmd.Context, os.Interrupt, syscall.SIGTERM)
					defer stop()

					return web.StartServer(ctx, c) // blocking call
				},
			},
			{
				Name:      "inspect",
				Usage:     "Print the reflected tables of a service",
				ArgsUsage: "<service>",
				Action: func(cmd *cli.Context) error {
					svc, err := service(c, cmd.Args().Get(0))
					if err != nil {
						return err
					}
					return inspect(cmd.Context, svc)
				},
			},
			{
				Name:      "compile",
				Usage:     "Compile a JSON or YAML filter into SQL",
				ArgsUsage: "<service> <entity> <file|->",
				Action: func(cmd *cli.Context) error {
					name := cmd.Args().Get(0)
					svc, err := service(c, name)
					if err != nil {
						return err
					}
					filter, err := readFilter(cmd.Args().Get(2), cmd.App.Reader)
					if err != nil {
						return err
					}
					return compile(cmd.Context, name, svc, cmd.Args().Get(1), filter)
				},
			},
		},
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.Run(os.Args); err != nil {
		logx.Error(err)
		logx.Close()
		os.Exit(1)
	}
}

func service(c schema.Config, name string) (schema.Service, error) {
	svc, ok := c.Services[name]
	if !ok {
		return schema.Service{}, fmt.Errorf("service %q is not configured", name)
	}
	return svc, nil
}

func inspect(ctx context.Context, svc schema.Service) error {
	driver, _, err := schema.ParseDSN(svc.DSN)
	if err != nil {
		return err
	}

	tablenames := make([]string, 0, len(svc.Schemas))
	for key, s := range svc.Schemas {
		tablenames = append(tablenames, s.TableName(key))
	}
	sort.Strings(tablenames)

	// open db
	db, err := schema.OpenDB(svc.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	reflector, err := schema.NewDatabase(driver, db)
	if err != nil {
		return err
	}

	tables, err := reflector.Tables(ctx, tablenames...)
	if err != nil {
		return err
	}

	// pretty print tables as json
	jsonData, err := json.MarshalIndent(tables, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(jsonData))

	return nil
}

// readFilter reads a filter from path, or from r when path is "-".
// Files ending in .yaml or .yml are parsed as YAML, everything else as JSON.
func readFilter(path string, r io.Reader) (builder.Map, error) {
	if path == "" {
		return nil, fmt.Errorf("filter file is required")
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(r)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return builder.ParseYAML(data)
	}
	return builder.ParseJSON(data)
}

func compile(ctx context.Context, name string, svc schema.Service, entity string, filter builder.Map) error {
	reg, db, err := schema.Open(ctx, name, svc)
	if err != nil {
		return err
	}
	defer db.Close()

	explain, err := query.NewExecutor(nil, reg.Composer()).Explain(entity, query.Request{Filter: filter})
	if err != nil {
		return err
	}

	sql, err := reg.Engine().Flavor().Interpolate(explain.SQL, explain.Args)
	if err != nil {
		return err
	}
	fmt.Println(sql)

	return nil
}
