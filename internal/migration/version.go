package migration

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"
)

type upMigration struct {
	version uint
	name    string
}

// upMigrations lists the embedded .up.sql files ordered by version.
func upMigrations() ([]upMigration, error) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	var out []upMigration
	seen := map[uint]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		version, ok := parseMigrationVersion(name)
		if !ok {
			return nil, fmt.Errorf("invalid migration filename: %s", name)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migrations %s and %s share version %d", prev, name, version)
		}
		seen[version] = name
		out = append(out, upMigration{version: version, name: name})
	}
	if len(out) == 0 {
		return nil, errors.New("no embedded migrations found")
	}

	slices.SortFunc(out, func(a, b upMigration) int { return int(a.version) - int(b.version) })
	return out, nil
}

// LatestMigrationVersion is the version the schema gate expects on postgres.
func LatestMigrationVersion() (uint, error) {
	migrations, err := upMigrations()
	if err != nil {
		return 0, err
	}
	return migrations[len(migrations)-1].version, nil
}

// MigrationsChecksum hashes the ordered up migrations, names included.
func MigrationsChecksum() (string, error) {
	migrations, err := upMigrations()
	if err != nil {
		return "", err
	}

	hasher := sha256.New()
	for _, m := range migrations {
		content, err := embeddedMigrations.ReadFile(migrationsDir + "/" + m.name)
		if err != nil {
			return "", fmt.Errorf("read migration %s: %w", m.name, err)
		}
		fmt.Fprintf(hasher, "%d:%s\n", m.version, m.name)
		_, _ = hasher.Write(content)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// parseMigrationVersion reads the numeric prefix of "<version>_<name>.up.sql".
func parseMigrationVersion(name string) (uint, bool) {
	prefix, _, found := strings.Cut(name, "_")
	if !found || prefix == "" {
		return 0, false
	}
	parsed, err := strconv.ParseUint(prefix, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(parsed), true
}
