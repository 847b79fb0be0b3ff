package postembed

import (
	"io/fs"

	"github.com/goliatone/go-postembed/internal/migrations"
)

// GetMigrationsFS returns the embedded SQL migrations, one directory per
// dialect under sql/.
func GetMigrationsFS() fs.FS {
	return migrations.FS()
}
