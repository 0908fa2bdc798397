// Package seed loads routes and drivers from a JSON file into the store.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"bustrack/internal/driver-service/core/services"
	"bustrack/internal/mylogger"
	"bustrack/internal/shared/db"
	"bustrack/internal/shared/models"
)

// File is the seed document. A driver is linked to the route that has the
// same bus number, if there is one.
type File struct {
	Routes  []models.Route `json:"routes"`
	Drivers []Driver       `json:"drivers"`
}

type Driver struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	BusNumber string `json:"busNumber"`
}

func Load(r io.Reader) (File, error) {
	var f File
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("decode seed file: %w", err)
	}
	return f, f.validate()
}

func (f File) validate() error {
	var problems []string
	routes := map[string]bool{}
	for i, r := range f.Routes {
		if r.BusNumber == "" {
			problems = append(problems, fmt.Sprintf("routes[%d]: busNumber is required", i))
		}
		if routes[r.BusNumber] {
			problems = append(problems, fmt.Sprintf("routes[%d]: duplicate busNumber %q", i, r.BusNumber))
		}
		routes[r.BusNumber] = true
		for j, s := range r.Stops {
			if !models.ValidCoordinates(s.Latitude, s.Longitude) {
				problems = append(problems, fmt.Sprintf("routes[%d].stops[%d]: invalid coordinates", i, j))
			}
		}
	}
	for i, d := range f.Drivers {
		if d.Username == "" || d.Password == "" || d.BusNumber == "" {
			problems = append(problems, fmt.Sprintf("drivers[%d]: username, password and busNumber are required", i))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid seed file: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Apply upserts every route and then every driver. Re-running it with the
// same file is safe.
func Apply(ctx context.Context, store *db.Store, f File, mylog mylogger.Logger) error {
	mylog = mylog.Action("seed")

	routeIDs := make(map[string]string, len(f.Routes))
	for _, r := range f.Routes {
		saved, err := store.Routes.Upsert(ctx, r)
		if err != nil {
			return fmt.Errorf("seed route %s: %w", r.BusNumber, err)
		}
		routeIDs[saved.BusNumber] = saved.ID
		mylog.Info("route seeded", "bus_number", saved.BusNumber, "route_id", saved.ID, "stops", len(saved.Stops))
	}

	for _, d := range f.Drivers {
		hash, err := services.HashPassword(d.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", d.Username, err)
		}

		routeID := routeIDs[d.BusNumber]
		if routeID == "" {
			if r, err := store.Routes.ResolveByBusNumber(ctx, d.BusNumber); err == nil {
				routeID = r.ID
			}
		}

		saved, err := store.Drivers.Upsert(ctx, models.Driver{
			Username:     d.Username,
			PasswordHash: hash,
			BusNumber:    d.BusNumber,
			RouteID:      routeID,
		})
		if err != nil {
			return fmt.Errorf("seed driver %s: %w", d.Username, err)
		}
		if routeID == "" {
			mylog.Warn("driver has no route", "username", d.Username, "bus_number", d.BusNumber)
		}
		mylog.Info("driver seeded", "username", saved.Username, "driver_id", saved.ID)
	}
	return nil
}
