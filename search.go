package mwalib

import (
	"fmt"
	"path/filepath"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// trawl recursively walks a TileDB VFS directory tree collecting entries
// whose basename matches pattern.
//
// Grounded on sixy6e/go-gsf's search/search.go trawl (there: hardcoded to
// "*.gsf"; generalised here to take the pattern as a parameter).
func trawl(vfs *tiledb.VFS, pattern string, uri string, items []string) ([]string, error) {
	dirs, files, err := vfs.List(uri)
	if err != nil {
		return items, err
	}

	for _, file := range files {
		match, err := filepath.Match(pattern, filepath.Base(file))
		if err != nil {
			return items, err
		}
		if match {
			items = append(items, file)
		}
	}

	for _, dir := range dirs {
		items, err = trawl(vfs, pattern, dir, items)
		if err != nil {
			return items, err
		}
	}

	return items, nil
}

// DiscoverObservation trawls dirURI (a local path or any TileDB-VFS URI)
// for exactly one metafits file and every gpubox/MWAX/voltage-shaped
// filename alongside it.
//
// Grounded on sixy6e/go-gsf's search/search.go FindGsf, generalised from a
// single hardcoded pattern to the set of filename schemas §4.1 describes.
func DiscoverObservation(dirURI string, configURI string) (metafits string, data []string, err error) {
	config, err := loadTileDBConfig(configURI)
	if err != nil {
		return "", nil, fmt.Errorf("mwalib: discovering %s: %w", dirURI, err)
	}
	defer config.Free()

	ctx, err := tiledb.NewContext(config)
	if err != nil {
		return "", nil, fmt.Errorf("mwalib: discovering %s: %w", dirURI, err)
	}
	defer ctx.Free()

	vfs, err := tiledb.NewVFS(ctx, config)
	if err != nil {
		return "", nil, fmt.Errorf("mwalib: discovering %s: %w", dirURI, err)
	}
	defer vfs.Free()

	metafitsCandidates, err := trawl(vfs, "*.metafits", dirURI, nil)
	if err != nil {
		return "", nil, err
	}
	if len(metafitsCandidates) == 0 {
		metafitsCandidates, err = trawl(vfs, "*_metafits_ppds.fits", dirURI, nil)
		if err != nil {
			return "", nil, err
		}
	}
	if len(metafitsCandidates) != 1 {
		return "", nil, fmt.Errorf("mwalib: expected exactly one metafits file under %s, found %d", dirURI, len(metafitsCandidates))
	}
	metafits = metafitsCandidates[0]

	dataPatterns := []string{"*_gpubox*.fits", "*_ch*.fits", "*.dat", "*.sub"}
	seen := make(map[string]bool)
	for _, pattern := range dataPatterns {
		matches, err := trawl(vfs, pattern, dirURI, nil)
		if err != nil {
			return "", nil, err
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				data = append(data, m)
			}
		}
	}

	return metafits, data, nil
}
