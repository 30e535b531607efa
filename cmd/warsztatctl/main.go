package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/motoserwis/warsztat-api/internal/models"
	"github.com/motoserwis/warsztat-api/internal/repository"
	"github.com/motoserwis/warsztat-api/internal/service"
	"github.com/motoserwis/warsztat-api/pkg/config"
	"github.com/motoserwis/warsztat-api/pkg/database"
	"github.com/motoserwis/warsztat-api/pkg/logger"
)

func main() {
	root := &cobra.Command{
		Use:           "warsztatctl",
		Short:         "Administrative CLI for the warsztat API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(provisionCmd(), seedDemoCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logr, nil
}

func openDB() (*sqlx.DB, *zap.Logger, error) {
	cfg, logr, err := bootstrap()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return db, logr, nil
}

func provisionCmd() *cobra.Command {
	var req service.ProvisionWorkshopRequest

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create a workshop together with its owner account",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, logr, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()  //nolint:errcheck
			defer logr.Sync() //nolint:errcheck

			svc := service.NewWorkshopService(
				repository.NewWorkshopRepository(db),
				repository.NewUserRepository(db),
				nil,
				logr,
			)

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			workshop, owner, err := svc.Provision(ctx, req)
			if err != nil {
				return err
			}
			fmt.Printf("workshop %s created (id %s)\n", workshop.Name, workshop.ID)
			fmt.Printf("owner %s created (id %s)\n", owner.Email, owner.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "workshop name")
	cmd.Flags().StringVar(&req.OwnerEmail, "owner-email", "", "owner login email")
	cmd.Flags().StringVar(&req.OwnerPassword, "owner-password", "", "owner password (min 8 characters)")
	cmd.Flags().StringVar(&req.OwnerFirstName, "owner-first-name", "", "owner first name")
	cmd.Flags().StringVar(&req.OwnerLastName, "owner-last-name", "", "owner last name")
	for _, flag := range []string{"name", "owner-email", "owner-password", "owner-first-name", "owner-last-name"} {
		_ = cmd.MarkFlagRequired(flag)
	}

	return cmd
}

func seedDemoCmd() *cobra.Command {
	var workshopID string

	cmd := &cobra.Command{
		Use:   "seed-demo",
		Short: "Insert a small demo dataset into an existing workshop",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, logr, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()  //nolint:errcheck
			defer logr.Sync() //nolint:errcheck

			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			if _, err := repository.NewWorkshopRepository(db).FindByID(ctx, workshopID); err != nil {
				return fmt.Errorf("workshop %s not found: %w", workshopID, err)
			}
			if err := seedDemo(ctx, db, workshopID); err != nil {
				return err
			}
			fmt.Println("demo dataset seeded")
			return nil
		},
	}

	cmd.Flags().StringVar(&workshopID, "workshop-id", "", "target workshop id")
	_ = cmd.MarkFlagRequired("workshop-id")

	return cmd
}

func seedDemo(ctx context.Context, db *sqlx.DB, workshopID string) error {
	clientRepo := repository.NewClientRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	mechanicRepo := repository.NewMechanicRepository(db)
	orderRepo := repository.NewRepairOrderRepository(db)
	timeEntryRepo := repository.NewTimeEntryRepository(db)

	client := &models.Client{
		WorkshopID: workshopID,
		FirstName:  "Jan",
		LastName:   "Kowalski",
		Phone:      "+48 600 100 200",
		Email:      "jan.kowalski@example.com",
		Street:     "ul. Warsztatowa 7",
		City:       "Kraków",
		PostalCode: "30-001",
	}
	if err := clientRepo.Create(ctx, client); err != nil {
		return fmt.Errorf("seed client: %w", err)
	}

	vehicle := &models.Vehicle{
		WorkshopID:         workshopID,
		ClientID:           client.ID,
		Make:               "Skoda",
		Model:              "Octavia",
		Year:               2018,
		VIN:                "TMBJJ7NE8J0123456",
		RegistrationNumber: "KR 12345",
	}
	if err := vehicleRepo.Create(ctx, vehicle); err != nil {
		return fmt.Errorf("seed vehicle: %w", err)
	}

	mechanic := &models.Mechanic{
		WorkshopID: workshopID,
		FirstName:  "Adam",
		LastName:   "Nowak",
		Active:     true,
	}
	if err := mechanicRepo.Create(ctx, mechanic); err != nil {
		return fmt.Errorf("seed mechanic: %w", err)
	}

	order := &models.RepairOrder{
		WorkshopID:         workshopID,
		VehicleID:          vehicle.ID,
		Status:             models.StatusInProgress,
		ProblemDescription: "Stuk z przodu przy hamowaniu, wymiana tarcz i klocków.",
	}
	if err := orderRepo.Create(ctx, order); err != nil {
		return fmt.Errorf("seed repair order: %w", err)
	}

	entry := &models.TimeEntry{
		WorkshopID:      workshopID,
		RepairOrderID:   order.ID,
		MechanicID:      mechanic.ID,
		DurationMinutes: 90,
		Description:     "Diagnostyka i demontaż zacisków",
	}
	if err := timeEntryRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("seed time entry: %w", err)
	}

	return nil
}
