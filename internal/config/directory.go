package config

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Directory selects which configured directory a torrent is saved into.
type Directory string

const (
	DirectoryMovies Directory = "movies"
	DirectorySeries Directory = "series"
)

var ErrUnknownDirectory = errors.New("unknown directory")

func ParseDirectory(s string) (Directory, error) {
	switch d := Directory(s); d {
	case DirectoryMovies, DirectorySeries:
		return d, nil
	}
	return "", fmt.Errorf("%w %q, expected one of %q, %q", ErrUnknownDirectory, s, DirectoryMovies, DirectorySeries)
}

func (d *Directory) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := ParseDirectory(s)
	if err != nil {
		return err
	}

	*d = parsed
	return nil
}
