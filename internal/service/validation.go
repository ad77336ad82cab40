package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shenikar/feuerwehr_melder/internal/models"
)

var validate = validator.New()

const (
	titleRule       = "required,min=3,max=200"
	descriptionRule = "max=5000"
	addressRule     = "min=3,max=400"
	latitudeRule    = "gte=-90,lte=90"
	longitudeRule   = "gte=-180,lte=180"
	vehicleNameRule = "required,min=2,max=100"
	alarmSoundRule  = "required,min=1,max=200"
	speechLangRule  = "required,min=2,max=50"
	weatherLocRule  = "max=200"
)

// checkVar проверяет одно значение правилом validator и возвращает ValidationError
func checkVar(field string, value any, rule string) error {
	err := validate.Var(value, rule)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return newValidationError(field, fmt.Sprintf("failed on the '%s' rule", verrs[0].Tag()))
	}
	return newValidationError(field, err.Error())
}

func normalizeIncidentInput(in *models.IncidentInput) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Address != nil {
		address := strings.TrimSpace(*in.Address)
		in.Address = &address
	}
	if in.Status == "" {
		in.Status = models.IncidentStatusNew
	} else if status, err := models.ParseIncidentStatus(string(in.Status)); err == nil {
		in.Status = status
	}
	if in.ScheduledAt != nil {
		at := in.ScheduledAt.UTC()
		in.ScheduledAt = &at
	}
}

func validateIncidentInput(in models.IncidentInput) error {
	if err := checkVar("title", in.Title, titleRule); err != nil {
		return err
	}
	if err := checkVar("description", in.Description, descriptionRule); err != nil {
		return err
	}
	if in.Address != nil {
		if err := validateAddress(*in.Address); err != nil {
			return err
		}
	}
	if err := validateCoordinates(in.Latitude, in.Longitude); err != nil {
		return err
	}
	if _, err := models.ParseIncidentStatus(string(in.Status)); err != nil {
		return newValidationError("status", err.Error())
	}
	if in.Address == nil && (in.Latitude == nil || in.Longitude == nil) {
		return newValidationError("address", "either address or both latitude and longitude are required")
	}
	return nil
}

// validateAddress проверяет уже обрезанный адрес. Пустой адрес передается как null, а не как "".
func validateAddress(address string) error {
	if address == "" {
		return newValidationError("address", "must not be blank")
	}
	return checkVar("address", address, addressRule)
}

func validateCoordinates(lat, lon *float64) error {
	if lat != nil {
		if err := checkVar("latitude", *lat, latitudeRule); err != nil {
			return err
		}
	}
	if lon != nil {
		if err := checkVar("longitude", *lon, longitudeRule); err != nil {
			return err
		}
	}
	return nil
}

// normalizeIncidentPatch обрезает пробелы в присутствующих строковых полях
func normalizeIncidentPatch(p *models.IncidentPatch) {
	if p.Title.Present() {
		p.Title = models.Some(strings.TrimSpace(*p.Title.Value))
	}
	if p.Address.Present() {
		p.Address = models.Some(strings.TrimSpace(*p.Address.Value))
	}
	if p.Status.Present() {
		if status, err := models.ParseIncidentStatus(string(*p.Status.Value)); err == nil {
			p.Status = models.Some(status)
		}
	}
	if p.ScheduledAt.Present() {
		p.ScheduledAt = models.Some(p.ScheduledAt.Value.UTC())
	}
}

func validateIncidentPatch(p models.IncidentPatch) error {
	if p.Title.Set {
		if p.Title.Value == nil {
			return newValidationError("title", "must not be null")
		}
		if err := checkVar("title", *p.Title.Value, titleRule); err != nil {
			return err
		}
	}
	if p.Description.Present() {
		if err := checkVar("description", *p.Description.Value, descriptionRule); err != nil {
			return err
		}
	}
	if p.Address.Present() {
		if err := validateAddress(*p.Address.Value); err != nil {
			return err
		}
	}
	if err := validateCoordinates(p.Latitude.Value, p.Longitude.Value); err != nil {
		return err
	}
	if p.Status.Set {
		if p.Status.Value == nil {
			return newValidationError("status", "must not be null")
		}
		if _, err := models.ParseIncidentStatus(string(*p.Status.Value)); err != nil {
			return newValidationError("status", err.Error())
		}
	}
	return nil
}

func validateVehicleName(name string) error {
	return checkVar("name", name, vehicleNameRule)
}

func validateVehicleStatus(status models.VehicleStatus) error {
	if !status.Valid() {
		return newValidationError("status", fmt.Sprintf("status %d is not one of 1, 2, 3, 4, 6", status))
	}
	return nil
}

func validateOptionsPatch(p models.OptionsPatch) error {
	for field, o := range map[string]models.Optional[bool]{
		"audio_enabled":  p.AudioEnabled,
		"speech_enabled": p.SpeechEnabled,
	} {
		if o.Set && o.Value == nil {
			return newValidationError(field, "must not be null")
		}
	}
	checks := []struct {
		field string
		value models.Optional[string]
		rule  string
	}{
		{"alarm_sound", p.AlarmSound, alarmSoundRule},
		{"speech_language", p.SpeechLanguage, speechLangRule},
		{"weather_location", p.WeatherLocation, weatherLocRule},
	}
	for _, c := range checks {
		if !c.value.Set {
			continue
		}
		if c.value.Value == nil {
			return newValidationError(c.field, "must not be null")
		}
		if err := checkVar(c.field, *c.value.Value, c.rule); err != nil {
			return err
		}
	}
	return nil
}
