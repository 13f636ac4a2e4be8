package internal

import (
	"encoding/base64"
	"fmt"

	"github.com/sensiblebit/amocollect"
)

// Placeholder timestamps. The add-on manager parses them but nothing
// depends on their values.
const (
	addonCreated     = "2022-02-22T22:22:22Z"
	addonLastUpdated = "2023-03-03T03:33:33Z"
)

// DeviceStagingDir is where archives are pushed on the device when they are
// not embedded in the collection.
const DeviceStagingDir = "/data/local/tmp/ext-qa-data/"

// LocatorMode selects how an addon's file URL refers to the archive.
type LocatorMode int

const (
	// LocatorDevicePath points at the archive under DeviceStagingDir.
	LocatorDevicePath LocatorMode = iota
	// LocatorEmbedded inlines the archive as a base64 data: URL.
	LocatorEmbedded
)

func (m LocatorMode) String() string {
	switch m {
	case LocatorDevicePath:
		return "device-path"
	case LocatorEmbedded:
		return "embedded"
	default:
		return fmt.Sprintf("LocatorMode(%d)", int(m))
	}
}

// Collection is the addons.mozilla.org "collection add-ons list" response.
type Collection struct {
	Count    int               `json:"count"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Results  []CollectionEntry `json:"results"`
}

// CollectionEntry is one result of a Collection.
type CollectionEntry struct {
	Addon Addon   `json:"addon"`
	Notes *string `json:"notes"`
}

// Addon is the subset of the AMO add-on detail object read by the Android
// add-on manager.
type Addon struct {
	GUID           string         `json:"guid"`
	Authors        []Author       `json:"authors"`
	Created        string         `json:"created"`
	LastUpdated    string         `json:"last_updated"`
	CurrentVersion CurrentVersion `json:"current_version"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Summary        string         `json:"summary"`
	IconURL        *string        `json:"icon_url"`
	URL            *string        `json:"url"`
	Ratings        *Ratings       `json:"ratings"`
	DefaultLocale  *string        `json:"default_locale"`
}

// Author mirrors the AMO author schema; generated collections never list any.
type Author struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	URL      string `json:"url"`
}

// Ratings mirrors the AMO ratings schema; always null in generated output.
type Ratings struct {
	Average     float64 `json:"average"`
	BayesianAvg float64 `json:"bayesian_average"`
	Count       int     `json:"count"`
	TextCount   int     `json:"text_count"`
}

// CurrentVersion describes the installable version of an add-on.
type CurrentVersion struct {
	Version string `json:"version"`
	Files   []File `json:"files"`
}

// File describes one downloadable archive.
type File struct {
	ID          uint32   `json:"id"`
	Size        int      `json:"size"`
	URL         string   `json:"url"`
	Permissions []string `json:"permissions"`
}

// BuildAddonInput holds the parameters for BuildAddon.
type BuildAddonInput struct {
	FileName    string // base name of the archive
	Data        []byte // full archive bytes
	GUID        string
	Version     string
	Name        string
	Description string
	Mode        LocatorMode
}

// BuildAddon maps one archive to its Addon record.
func BuildAddon(in BuildAddonInput) Addon {
	return Addon{
		GUID:        in.GUID,
		Authors:     []Author{},
		Created:     addonCreated,
		LastUpdated: addonLastUpdated,
		CurrentVersion: CurrentVersion{
			Version: in.Version,
			Files: []File{{
				ID:          amocollect.ContentHash(in.Data),
				Size:        len(in.Data),
				URL:         ArchiveURL(in.FileName, in.Data, in.Mode),
				Permissions: []string{},
			}},
		},
		Name:        in.Name,
		Description: fmt.Sprintf("[ addon: %s:%s ]\n\n%s", in.GUID, in.Version, in.Description),
		Summary:     fmt.Sprintf("[version %s] %s", in.Version, in.Description),
	}
}

// ArchiveURL returns the download URL of an archive for the given mode.
func ArchiveURL(fileName string, data []byte, mode LocatorMode) string {
	if mode == LocatorEmbedded {
		return "data:application/x-xpinstall;base64," + base64.StdEncoding.EncodeToString(data)
	}
	return "file://" + DeviceStagingDir + fileName
}

// BuildCollection wraps addons, in order, into a Collection.
func BuildCollection(addons []Addon) Collection {
	results := make([]CollectionEntry, 0, len(addons))
	for _, a := range addons {
		results = append(results, CollectionEntry{Addon: a})
	}
	return Collection{Count: len(addons), Results: results}
}
