package models

import (
	"fmt"
	"strings"
	"time"
)

// IncidentStatus - статус инцидента
type IncidentStatus string

const (
	IncidentStatusNew    IncidentStatus = "new"
	IncidentStatusActive IncidentStatus = "active"
	IncidentStatusClosed IncidentStatus = "closed"
)

// DefaultIncidentTitle используется, когда инцидент создается через update без заголовка
const DefaultIncidentTitle = "Einsatz"

// ParseIncidentStatus приводит строку к IncidentStatus
func ParseIncidentStatus(s string) (IncidentStatus, error) {
	switch IncidentStatus(strings.ToLower(strings.TrimSpace(s))) {
	case IncidentStatusNew:
		return IncidentStatusNew, nil
	case IncidentStatusActive:
		return IncidentStatusActive, nil
	case IncidentStatusClosed:
		return IncidentStatusClosed, nil
	}
	return "", fmt.Errorf("unknown incident status %q", s)
}

type Incident struct {
	ID          int64
	Title       string
	Description string
	Address     string
	Latitude    *float64
	Longitude   *float64
	ScheduledAt *time.Time
	Status      IncidentStatus
	CreatedAt   time.Time
	Vehicles    []Vehicle
}

// HasLocation сообщает, задан ли адрес или пара координат
func (i *Incident) HasLocation() bool {
	return strings.TrimSpace(i.Address) != "" || (i.Latitude != nil && i.Longitude != nil)
}

// IncidentInput - данные для создания инцидента
type IncidentInput struct {
	Title       string
	Description string
	Address     *string
	Latitude    *float64
	Longitude   *float64
	ScheduledAt *time.Time
	Status      IncidentStatus
	VehicleIDs  []int64
}

// IncidentPatch - частичное обновление. Применяются только поля с Set == true.
type IncidentPatch struct {
	Title       Optional[string]
	Description Optional[string]
	Address     Optional[string]
	Latitude    Optional[float64]
	Longitude   Optional[float64]
	ScheduledAt Optional[time.Time]
	Status      Optional[IncidentStatus]
	VehicleIDs  Optional[[]int64]
}

// AsPatch превращает входные данные создания в патч, где присутствуют все поля.
// Так совпавший при создании инцидент обновляется по тем же правилам, что и явный update.
func (in IncidentInput) AsPatch() IncidentPatch {
	p := IncidentPatch{
		Title:       Some(in.Title),
		Description: Some(in.Description),
		Address:     FromPtr(in.Address),
		Latitude:    FromPtr(in.Latitude),
		Longitude:   FromPtr(in.Longitude),
		ScheduledAt: FromPtr(in.ScheduledAt),
		Status:      Some(in.Status),
		VehicleIDs:  Some(in.VehicleIDs),
	}
	if in.VehicleIDs == nil {
		p.VehicleIDs = Some([]int64{})
	}
	return p
}

// TouchesLocation - затрагивает ли патч адрес или координаты
func (p IncidentPatch) TouchesLocation() bool {
	return p.Address.Set || p.Latitude.Set || p.Longitude.Set
}

// HasCoordinates - обе координаты присутствуют и не null
func (p IncidentPatch) HasCoordinates() bool {
	return p.Latitude.Present() && p.Longitude.Present()
}
