package main

import (
	"flag"
	"os"

	"github.com/debemdeboas/zenblog/internal/config"
	"github.com/debemdeboas/zenblog/internal/logger"
	"github.com/debemdeboas/zenblog/internal/repository"
)

// main copies the local store from one driver to another, for example when
// moving from the file driver to sqlite.
func main() {
	fromDriver := flag.String("from-driver", "file", "source storage driver")
	fromPath := flag.String("from-path", "~/.zenblog", "source storage path")
	fromCompression := flag.String("from-compression", "zstd", "source record compression")
	toDriver := flag.String("to-driver", "sqlite", "destination storage driver")
	toPath := flag.String("to-path", "~/.zenblog", "destination storage path")
	toCompression := flag.String("to-compression", "zstd", "destination record compression")
	flag.Parse()

	log, closeLog := logger.New(config.LoggingConfig{Level: "info"})
	defer closeLog()
	repository.SetLogger(log)

	open := func(driver, path, compression string) *repository.KVRepository {
		expanded, err := config.ExpandPath(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Invalid storage path")
		}
		repo, err := repository.Open(config.StorageConfig{Driver: driver, Path: expanded, Compression: compression})
		if err != nil {
			log.Fatal().Err(err).Str("driver", driver).Msg("Could not open store")
		}
		return repo
	}

	if *fromDriver == *toDriver && *fromPath == *toPath {
		log.Fatal().Msg("Source and destination are the same store")
	}

	src := open(*fromDriver, *fromPath, *fromCompression)
	defer src.Close()
	dst := open(*toDriver, *toPath, *toCompression)
	defer dst.Close()

	stats, err := repository.Copy(dst, src)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Migration failed")
		src.Close()
		dst.Close()
		os.Exit(1)
	}
	log.Info().Int("posts", stats.Posts).Bool("draft", stats.Draft).Msg("Migration complete")
}
