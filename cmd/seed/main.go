// seed populates a development database with synthetic users, photos,
// albums, and memories, for exercising search/clustering/dedup locally
// without a real Drive account or CLIP embedding service.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justraqib/semantic-photo/internal/config"
	"github.com/justraqib/semantic-photo/internal/domain/album"
	"github.com/justraqib/semantic-photo/internal/domain/memory"
	"github.com/justraqib/semantic-photo/internal/domain/photo"
	"github.com/justraqib/semantic-photo/internal/domain/user"
	"github.com/justraqib/semantic-photo/internal/infra/postgres"
	"github.com/justraqib/semantic-photo/internal/logging"
)

// logger is shared across this short-lived CLI invocation; seed has no
// long-running component to thread a logger through.
var logger = logging.New(os.Getenv("DEBUG") == "true")

const (
	SeedUsers    = "users"
	SeedPhotos   = "photos"
	SeedAlbums   = "albums"
	SeedMemories = "memories"
	SeedAll      = "all"
)

var validSeedTypes = []string{SeedUsers, SeedPhotos, SeedAlbums, SeedMemories, SeedAll}

var cameraMakes = []string{"Apple", "Google", "Samsung", "Canon", "Nikon", "Fujifilm", "Sony"}

var captionWords = []string{
	"sunset", "hike", "family", "birthday", "beach", "mountains", "city lights",
	"road trip", "dinner", "garden", "snow day", "festival", "picnic", "reunion",
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	seedType := strings.ToLower(os.Args[1])
	if !isValidSeedType(seedType) {
		fmt.Printf("Error: invalid seed type %q\n\n", seedType)
		printUsage()
		os.Exit(1)
	}

	userCount := 5
	photosPerUser := 40
	if len(os.Args) > 2 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil {
			userCount = n
		}
	}
	if len(os.Args) > 3 {
		if n, err := strconv.Atoi(os.Args[3]); err == nil {
			photosPerUser = n
		}
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	photoRepo := postgres.NewPhotoRepository(pool)
	albumRepo := postgres.NewAlbumRepository(pool)
	memoryRepo := postgres.NewMemoryRepository(pool)

	users, err := loadOrSeedUsers(ctx, userRepo, userCount, seedType)
	if err != nil {
		logger.Error("seeding users", "error", err)
		os.Exit(1)
	}

	if seedType == SeedPhotos || seedType == SeedAll {
		for _, u := range users {
			if err := seedPhotosForUser(ctx, photoRepo, u.ID(), photosPerUser); err != nil {
				logger.Error("seeding photos", "user_id", u.ID(), "error", err)
				os.Exit(1)
			}
		}
		fmt.Printf("seeded %d photos per user for %d users\n", photosPerUser, len(users))
	}

	if seedType == SeedAlbums || seedType == SeedAll {
		for _, u := range users {
			if err := seedAlbumsForUser(ctx, photoRepo, albumRepo, u.ID()); err != nil {
				logger.Error("seeding albums", "user_id", u.ID(), "error", err)
				os.Exit(1)
			}
		}
		fmt.Printf("seeded albums for %d users\n", len(users))
	}

	if seedType == SeedMemories || seedType == SeedAll {
		gen := memory.NewGenerator(memoryRepo)
		if err := gen.GenerateForToday(ctx); err != nil {
			logger.Error("generating memories", "error", err)
			os.Exit(1)
		}
		fmt.Println("generated today's memories")
	}

	fmt.Println("done.")
}

func printUsage() {
	fmt.Println(`seed - development database seeding tool

Usage:
  seed <type> [userCount] [photosPerUser]

Types:
  users      Create userCount fake users (default 5)
  photos     Create photosPerUser synthetic photos per user (default 40)
  albums     Group each user's photos into a handful of albums
  memories   Run the Memory Generator for today's date
  all        users + photos + albums + memories

photos, albums and memories work on the users created in the same run,
so they take effect only as part of "all"; given alone they exit with
an error. Users already in the database are not loaded.

Environment:
  DATABASE_URL   PostgreSQL connection string (required, see internal/config)

Examples:
  seed users 10
  seed all 10 100
  seed all 5 50`)
}

func isValidSeedType(t string) bool {
	for _, v := range validSeedTypes {
		if v == t {
			return true
		}
	}
	return false
}

func loadOrSeedUsers(ctx context.Context, repo user.Repository, count int, seedType string) ([]*user.User, error) {
	if seedType != SeedUsers && seedType != SeedAll {
		return nil, fmt.Errorf("seed %s works only on users created in the same run; use `seed all %d`", seedType, count)
	}

	users := make([]*user.User, 0, count)
	for i := 0; i < count; i++ {
		email := gofakeit.Email()
		name := gofakeit.Name()
		u, err := user.NewUser(email, name)
		if err != nil {
			return nil, err
		}
		if err := repo.Save(ctx, u); err != nil {
			return nil, fmt.Errorf("save user %s: %w", email, err)
		}
		users = append(users, u)
	}
	fmt.Printf("seeded %d users\n", len(users))
	return users, nil
}

// seedPhotosForUser inserts count synthetic photos with plausible
// metadata but no real object-store content — storage_key/thumbnail_key
// point at keys that were never Put, since seeding is for exercising
// search/dedup/clustering queries against Postgres, not the full
// storage+embedder pipeline.
func seedPhotosForUser(ctx context.Context, repo photo.Repository, ownerID uuid.UUID, count int) error {
	for i := 0; i < count; i++ {
		id := uuid.New()
		takenAt := gofakeit.DateRange(time.Now().AddDate(-6, 0, 0), time.Now())
		width, height := 3024, 4032
		if rand.Intn(2) == 0 {
			width, height = height, width
		}

		p, err := photo.NewPhoto(photo.NewPhotoInput{
			OwnerID:          ownerID,
			StorageKey:       fmt.Sprintf("users/%s/photos/%s.jpg", ownerID, id),
			ThumbnailKey:     fmt.Sprintf("users/%s/thumbnails/%s.webp", ownerID, id),
			OriginalFilename: fmt.Sprintf("IMG_%04d.jpg", rand.Intn(9999)),
			SizeBytes:        int64(gofakeit.Number(800_000, 12_000_000)),
			Mime:             "image/jpeg",
			Width:            width,
			Height:           height,
			TakenAt:          &takenAt,
			Source:           photo.SourceManual,
			PerceptualHash:   fmt.Sprintf("p:%016x", rand.Uint64()),
			GPSLat:           randomLat(),
			GPSLng:           randomLng(),
			CameraMake:       randomCameraMake(),
		})
		if err != nil {
			return err
		}

		if rand.Intn(3) == 0 {
			p.SetCaption(captionWords[rand.Intn(len(captionWords))])
		}

		if err := repo.InsertPhoto(ctx, p); err != nil {
			return fmt.Errorf("insert photo: %w", err)
		}

		vec := make([]float32, photo.EmbedDim)
		for j := range vec {
			vec[j] = rand.Float32()*2 - 1
		}
		if err := repo.SetEmbedding(ctx, p.ID(), vec); err != nil {
			return fmt.Errorf("set embedding: %w", err)
		}
	}
	return nil
}

func seedAlbumsForUser(ctx context.Context, photoRepo photo.Repository, albumRepo album.Repository, ownerID uuid.UUID) error {
	photos, err := photoRepo.ListByOwnerUploadOrder(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("list photos: %w", err)
	}
	if len(photos) == 0 {
		return nil
	}

	albumCount := 3
	for i := 0; i < albumCount; i++ {
		a, err := album.NewAlbum(ownerID, fmt.Sprintf("%s %d", gofakeit.Adjective(), time.Now().Year()))
		if err != nil {
			return err
		}
		if err := albumRepo.Save(ctx, a); err != nil {
			return fmt.Errorf("save album: %w", err)
		}

		rand.Shuffle(len(photos), func(i, j int) { photos[i], photos[j] = photos[j], photos[i] })
		n := len(photos)/albumCount + 1
		if n > len(photos) {
			n = len(photos)
		}
		for pos, p := range photos[:n] {
			if err := albumRepo.AddPhoto(ctx, a.ID(), p.ID(), pos); err != nil {
				return fmt.Errorf("add photo to album: %w", err)
			}
		}
	}
	return nil
}

func randomLat() *float64 {
	if rand.Intn(3) == 0 {
		return nil
	}
	v := gofakeit.Latitude()
	return &v
}

func randomLng() *float64 {
	if rand.Intn(3) == 0 {
		return nil
	}
	v := gofakeit.Longitude()
	return &v
}

func randomCameraMake() *string {
	if rand.Intn(4) == 0 {
		return nil
	}
	v := cameraMakes[rand.Intn(len(cameraMakes))]
	return &v
}
