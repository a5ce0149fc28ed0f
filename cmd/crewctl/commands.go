package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	orgrepo "github.com/crewboard/crewboard-backend/internal/org/repository"
	schedevents "github.com/crewboard/crewboard-backend/internal/schedule/events"
	schedrepo "github.com/crewboard/crewboard-backend/internal/schedule/repository"
	schedservice "github.com/crewboard/crewboard-backend/internal/schedule/service"
	"github.com/crewboard/crewboard-backend/pkg/actor"
	"github.com/crewboard/crewboard-backend/pkg/config"
	"github.com/crewboard/crewboard-backend/pkg/database"
	"github.com/crewboard/crewboard-backend/pkg/logger"
)

// Globals is shared by every command
type Globals struct {
	ConfigName string
	Out        io.Writer
}

func (g *Globals) open() (*config.Config, *database.DB, *logger.Logger, error) {
	cfg, err := config.LoadWithValidation(g.ConfigName)
	if err != nil {
		return nil, nil, nil, err
	}
	log := logger.New("crewctl", cfg.Server.Environment)
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, db, log, nil
}

// MigrateCmd applies pending migrations
type MigrateCmd struct{}

func (m *MigrateCmd) Run(ctx context.Context, g *Globals) error {
	_, db, _, err := g.open()
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := db.Migrate(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(g.Out, "database is up to date")
		return nil
	}
	for _, v := range applied {
		fmt.Fprintf(g.Out, "applied %s\n", v)
	}
	return nil
}

// SeedHolidaysCmd loads a global holiday calendar
type SeedHolidaysCmd struct {
	File string `help:"YAML holiday calendar" required:"" type:"existingfile"`
}

func (s *SeedHolidaysCmd) Run(ctx context.Context, g *Globals) error {
	f, err := os.Open(s.File)
	if err != nil {
		return err
	}
	defer f.Close()

	items, err := schedservice.LoadHolidayFile(f)
	if err != nil {
		return err
	}

	_, db, log, err := g.open()
	if err != nil {
		return err
	}
	defer db.Close()

	svc := schedservice.NewHolidayService(schedrepo.NewHolidayRepository(db), orgrepo.NewAccessRepository(db), schedevents.NewSchedulePublisher(nil, log), log)
	n, err := svc.SeedGlobal(ctx, items)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.Out, "seeded %d holidays from %s\n", n, s.File)
	return nil
}

// BootstrapOrgCmd creates a tenant with its first admin account
type BootstrapOrgCmd struct {
	Name           string `help:"Organization display name" required:""`
	Slug           string `help:"Unique organization slug" required:""`
	AdminEmail     string `help:"Admin login email" required:""`
	AdminPassword  string `help:"Admin password" required:"" env:"CREWBOARD_ADMIN_PASSWORD"`
	AdminFirstName string `help:"Admin first name" default:"Admin"`
	AdminLastName  string `help:"Admin last name" default:"User"`
}

func (b *BootstrapOrgCmd) Run(ctx context.Context, g *Globals) error {
	cfg, db, _, err := g.open()
	if err != nil {
		return err
	}
	defer db.Close()

	if minLen := cfg.Auth.MinPasswordLength; len(b.AdminPassword) < minLen {
		return fmt.Errorf("admin password must be at least %d characters", minLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(b.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	org := &orgrepo.Organization{Name: strings.TrimSpace(b.Name), Slug: strings.ToLower(strings.TrimSpace(b.Slug))}
	admin := &orgrepo.UserProfile{
		Email:     strings.TrimSpace(b.AdminEmail),
		FirstName: b.AdminFirstName,
		LastName:  b.AdminLastName,
	}

	ctx = actor.WithActor(ctx, actor.SystemActor())
	if err := orgrepo.NewOrganizationRepository(db).Bootstrap(ctx, org, admin, string(hash)); err != nil {
		return err
	}
	fmt.Fprintf(g.Out, "created organization %s (%s) with admin %s\n", org.Slug, org.ID, admin.Email)
	return nil
}
