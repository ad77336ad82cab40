package models

// OptionsID - единственная строка настроек
const OptionsID = 1

type Options struct {
	ID              int64
	AudioEnabled    bool
	SpeechEnabled   bool
	AlarmSound      string
	SpeechLanguage  string
	WeatherLocation string
}

// DefaultOptions возвращает настройки по умолчанию
func DefaultOptions() *Options {
	return &Options{
		ID:              OptionsID,
		AudioEnabled:    true,
		SpeechEnabled:   true,
		AlarmSound:      "gong1.mp3",
		SpeechLanguage:  "de-DE",
		WeatherLocation: "",
	}
}

type OptionsPatch struct {
	AudioEnabled    Optional[bool]
	SpeechEnabled   Optional[bool]
	AlarmSound      Optional[string]
	SpeechLanguage  Optional[string]
	WeatherLocation Optional[string]
}
