package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

var (
	version = "dev"
	cli     struct {
		Migrate      MigrateCmd      `cmd:"" help:"Apply the embedded database migrations"`
		SeedHolidays SeedHolidaysCmd `cmd:"" help:"Upsert global holidays from a YAML file"`
		BootstrapOrg BootstrapOrgCmd `cmd:"" help:"Create an organization and its first admin"`
		Config       string          `help:"Config file name under ./config or /etc/crewboard" default:"crewctl"`
		Version      kong.VersionFlag
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Name("crewctl"),
		kong.Description("Operator tooling for the crewboard backend."),
		kong.Vars{"version": version},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&Globals{ConfigName: cli.Config, Out: os.Stdout})
	cmd.FatalIfErrorf(err)
}
