package fns

import (
	"errors"
	"strings"
)

// Settings holds the FNS account and device identity used for every session.
// It is loaded once at startup and copied into each session.
type Settings struct {
	Host         string
	INN          string
	Password     string
	ClientSecret string
	DeviceID     string
	DeviceOS     string
}

// Validate reports every required field that is missing
func (s Settings) Validate() error {
	var errs []error
	if s.Host == "" {
		errs = append(errs, errors.New("fns host is required"))
	}
	if s.INN == "" {
		errs = append(errs, errors.New("fns inn is required"))
	}
	if s.Password == "" {
		errs = append(errs, errors.New("fns password is required"))
	}
	if s.ClientSecret == "" {
		errs = append(errs, errors.New("fns client secret is required"))
	}
	if s.DeviceID == "" {
		errs = append(errs, errors.New("fns device id is required"))
	}
	if s.DeviceOS == "" {
		errs = append(errs, errors.New("fns device os is required"))
	}
	return errors.Join(errs...)
}

// baseURL returns the API root. A bare host means https.
func (s Settings) baseURL() string {
	host := strings.TrimRight(s.Host, "/")
	if strings.Contains(host, "://") {
		return host
	}
	return "https://" + host
}
