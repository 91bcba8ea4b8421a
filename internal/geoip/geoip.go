// Package geoip enriches recorded view events with a coarse location.
// Without a MaxMind database file every lookup is an empty Location; the
// analytics pipeline treats that as "unknown".
package geoip

import (
	"log/slog"
	"net"

	"github.com/oschwald/maxminddb-golang"
)

type Location struct {
	Country string
	City    string
}

type Resolver struct {
	db *maxminddb.Reader
}

type record struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
}

// Open loads the database at path. An empty or unreadable path disables
// geolocation rather than failing startup.
func Open(path string) *Resolver {
	if path == "" {
		return &Resolver{}
	}
	db, err := maxminddb.Open(path)
	if err != nil {
		slog.Warn("geoip: database unavailable, geolocation disabled", "path", path, "error", err)
		return &Resolver{}
	}
	slog.Info("geoip: database loaded", "path", path)
	return &Resolver{db: db}
}

func (r *Resolver) Lookup(ipStr string) Location {
	if r == nil || r.db == nil || ipStr == "" {
		return Location{}
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return Location{}
	}
	var rec record
	if err := r.db.Lookup(ip, &rec); err != nil {
		return Location{}
	}
	return Location{Country: rec.Country.ISOCode, City: rec.City.Names["en"]}
}

func (r *Resolver) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
