package commands

import (
	"context"
	"log/slog"
	"strings"

	application "turnboard/contexts/turnover/leaderboard-service/application"
	"turnboard/contexts/turnover/leaderboard-service/domain/entities"
	domainerrors "turnboard/contexts/turnover/leaderboard-service/domain/errors"
	"turnboard/contexts/turnover/leaderboard-service/ports"
)

type UpsertSyntheticCommand struct {
	Date      string
	Country   string
	Username  string
	BoostPct  float64
	IsActive  *bool
	Note      string
	CreatedBy string
}

type SyntheticConfigUseCase struct {
	Configs ports.SyntheticRepository
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

func (uc SyntheticConfigUseCase) Upsert(ctx context.Context, cmd UpsertSyntheticCommand) (entities.SyntheticConfig, error) {
	logger := application.ResolveLogger(uc.Logger)

	date := strings.TrimSpace(cmd.Date)
	if !application.ValidDate(date) {
		return entities.SyntheticConfig{}, domainerrors.ErrInvalidDate
	}
	country := strings.ToUpper(strings.TrimSpace(cmd.Country))
	if country == "" {
		country = "ALL"
	}
	if country != "ALL" && country != "BR" && country != "MX" {
		return entities.SyntheticConfig{}, domainerrors.ErrInvalidCountry
	}

	config := entities.SyntheticConfig{
		Date:      date,
		Country:   country,
		Username:  strings.TrimSpace(cmd.Username),
		BoostPct:  cmd.BoostPct,
		IsActive:  true,
		Note:      strings.TrimSpace(cmd.Note),
		CreatedBy: strings.TrimSpace(cmd.CreatedBy),
		CreatedAt: uc.Clock.Now().UTC(),
	}
	if cmd.IsActive != nil {
		config.IsActive = *cmd.IsActive
	}
	if !config.ValidateUpsert() {
		return entities.SyntheticConfig{}, domainerrors.ErrInvalidSyntheticConfig
	}

	configID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.SyntheticConfig{}, err
	}
	config.ConfigID = configID

	stored, err := uc.Configs.UpsertSyntheticConfig(ctx, config)
	if err != nil {
		return entities.SyntheticConfig{}, err
	}

	logger.Info("synthetic participant upserted",
		"event", "turnover_synthetic_upserted",
		"module", "turnover/leaderboard-service",
		"layer", "application",
		"date", stored.Date,
		"country", stored.Country,
		"username", stored.Username,
		"boost_pct", stored.BoostPct,
		"is_active", stored.IsActive,
	)
	return stored, nil
}

func (uc SyntheticConfigUseCase) Delete(ctx context.Context, configID string) error {
	configID = strings.TrimSpace(configID)
	if configID == "" {
		return domainerrors.ErrSyntheticConfigNotFound
	}
	return uc.Configs.DeleteSyntheticConfig(ctx, configID)
}
