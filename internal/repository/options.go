package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/feuerwehr_melder/internal/models"
)

type OptionsRepository struct {
	db *pgxpool.Pool
}

func NewOptionsRepository(db *pgxpool.Pool) *OptionsRepository {
	return &OptionsRepository{db: db}
}

// GetOrCreate читает строку настроек, создавая ее со значениями по умолчанию.
// Два одновременных первых обращения безопасны благодаря ON CONFLICT DO NOTHING.
func (r *OptionsRepository) GetOrCreate(ctx context.Context) (*models.Options, error) {
	defaults := models.DefaultOptions()
	_, err := r.db.Exec(ctx, `
		INSERT INTO options (id, audio_enabled, speech_enabled, alarm_sound, speech_language, weather_location)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING;
	`,
		defaults.ID,
		defaults.AudioEnabled,
		defaults.SpeechEnabled,
		defaults.AlarmSound,
		defaults.SpeechLanguage,
		defaults.WeatherLocation,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create default options: %w", err)
	}

	options := &models.Options{}
	err = r.db.QueryRow(ctx, `
		SELECT id, audio_enabled, speech_enabled, alarm_sound, speech_language, weather_location
		FROM options WHERE id = $1;
	`, models.OptionsID).Scan(
		&options.ID,
		&options.AudioEnabled,
		&options.SpeechEnabled,
		&options.AlarmSound,
		&options.SpeechLanguage,
		&options.WeatherLocation,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get options: %w", err)
	}
	return options, nil
}

func (r *OptionsRepository) Update(ctx context.Context, options *models.Options) error {
	_, err := r.db.Exec(ctx, `
		UPDATE options SET
			audio_enabled = $1,
			speech_enabled = $2,
			alarm_sound = $3,
			speech_language = $4,
			weather_location = $5
		WHERE id = $6;
	`,
		options.AudioEnabled,
		options.SpeechEnabled,
		options.AlarmSound,
		options.SpeechLanguage,
		options.WeatherLocation,
		models.OptionsID,
	)
	if err != nil {
		return fmt.Errorf("failed to update options: %w", err)
	}
	return nil
}
