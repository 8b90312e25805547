package app

import (
	"context"
	"fmt"

	"github.com/GoArmGo/StudentRegistry/internal/domain"
	"github.com/GoArmGo/StudentRegistry/internal/usecase"
)

// runSeed создаёт администратора по умолчанию и завершается.
func (a *App) runSeed(ctx context.Context) error {
	return a.seedAdmin(ctx)
}

func (a *App) seedAdmin(ctx context.Context) error {
	seed, err := adminSeedFromConfig(a.config.Admin.FirstName, a.config.Admin.LastName,
		a.config.Admin.Email, a.config.Admin.Password, a.config.Admin.DateOfBirth)
	if err != nil {
		return err
	}

	user, created, err := a.admin.SeedAdmin(ctx, seed)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		a.logger.Info("admin user created", "email", user.Email, "registration_number", user.RegistrationNumber)
	} else {
		a.logger.Info("admin user already exists", "email", user.Email)
	}
	return nil
}

func adminSeedFromConfig(firstName, lastName, email, password, dateOfBirth string) (usecase.AdminSeed, error) {
	dob, err := domain.ParseDate(dateOfBirth)
	if err != nil {
		return usecase.AdminSeed{}, fmt.Errorf("ADMIN_DATE_OF_BIRTH: %w", err)
	}
	return usecase.AdminSeed{
		FirstName:   firstName,
		LastName:    lastName,
		Email:       email,
		Password:    password,
		DateOfBirth: dob,
	}, nil
}
