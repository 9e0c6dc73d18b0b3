// Package peoplecluster implements the People Clusterer (C10): assigns
// a newly-embedded photo to an existing person cluster by cosine
// nearest-neighbour, or mints a new one, per spec.md §4.10.
package peoplecluster

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/justraqib/semantic-photo/internal/domain/photo"
)

const (
	// candidatePoolSize is spec.md §4.10 step 1's "up to 600 recent
	// candidates".
	candidatePoolSize = 600
	// threshold is spec.md §4.10 step 3's minimum cosine similarity to
	// reuse an existing cluster's tag rather than minting a new one.
	threshold = 0.86
	// commitEvery is the reindex operation's batching cadence.
	commitEvery = 100
)

// Clusterer assigns person-cluster tags over the photo repository's
// tag graph.
type Clusterer struct {
	repo photo.Repository
}

func NewClusterer(repo photo.Repository) *Clusterer {
	return &Clusterer{repo: repo}
}

// AssignForPhoto runs steps 1-4 for a single freshly-embedded photo:
// find the most similar existing person/person_cluster candidate,
// reuse its tag if similarity clears threshold, otherwise mint one.
func (c *Clusterer) AssignForPhoto(ctx context.Context, p *photo.Photo) error {
	if !p.HasEmbedding() {
		return nil
	}

	candidates, err := c.repo.CandidatesForClustering(ctx, p.OwnerID(), candidatePoolSize)
	if err != nil {
		return err
	}

	tagName, score, err := bestTagFor(ctx, c.repo, p, candidates)
	if err != nil {
		return err
	}

	return c.applyTag(ctx, p.ID(), tagName, score)
}

// Reindex clears the person tags of every embedded photo of ownerID and
// re-runs clustering in upload order. Each photo's tag is written as it
// is processed, with no batched transaction; every 100 photos the
// in-memory candidate pool is trimmed to the most recent 600. With
// fullReset=false the existing tags are still cleared first — spec.md
// §4.10 describes reindex as always starting from a clean slate; the
// flag distinguishes a full vs incremental sweep for callers that want
// to report progress differently, but the clustering pass itself is
// identical either way.
func (c *Clusterer) Reindex(ctx context.Context, ownerID uuid.UUID, fullReset bool) (int, error) {
	photos, err := c.repo.ListByOwnerUploadOrder(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	var processed int
	var clustered []*photo.Photo

	for _, p := range photos {
		if !p.HasEmbedding() {
			continue
		}
		if err := c.repo.ClearPersonTags(ctx, p.ID()); err != nil {
			return processed, err
		}

		tagName, score, err := bestTagFor(ctx, c.repo, p, clustered)
		if err != nil {
			return processed, err
		}
		if err := c.applyTag(ctx, p.ID(), tagName, score); err != nil {
			return processed, err
		}

		clustered = append(clustered, p)
		processed++
		if processed%commitEvery == 0 && len(clustered) > candidatePoolSize {
			clustered = clustered[len(clustered)-candidatePoolSize:]
		}
	}

	return processed, nil
}

func bestTagFor(ctx context.Context, repo photo.Repository, p *photo.Photo, candidates []*photo.Photo) (string, float64, error) {
	best := -1.0
	var bestCandidate *photo.Photo
	for _, cand := range candidates {
		if cand.ID() == p.ID() || !cand.HasEmbedding() {
			continue
		}
		score := cosineSimilarity(p.Embedding(), cand.Embedding())
		if score > best {
			best = score
			bestCandidate = cand
		}
	}

	if bestCandidate != nil && best >= threshold {
		tagName, err := personTagNameFor(ctx, repo, p.OwnerID(), bestCandidate.ID())
		if err != nil {
			return "", 0, err
		}
		return tagName, best, nil
	}

	token, err := randomToken()
	if err != nil {
		return "", 0, err
	}
	// Mint a fresh cluster tag; it is stored with confidence 1.0.
	return photo.PersonClusterTagPrefix + token, 1.0, nil
}

// personTagNameFor reads the candidate's existing person/person_cluster
// tag name back from the tag graph, so the photo being assigned joins
// the SAME cluster rather than minting a sibling one.
func personTagNameFor(ctx context.Context, repo photo.Repository, ownerID, candidateID uuid.UUID) (string, error) {
	groups, err := repo.ListPersonGroups(ctx, ownerID)
	if err != nil {
		return "", err
	}
	for _, g := range groups {
		for _, id := range g.PhotoIDs {
			if id == candidateID {
				return g.TagName, nil
			}
		}
	}
	token, err := randomToken()
	if err != nil {
		return "", err
	}
	return photo.PersonClusterTagPrefix + token, nil
}

func (c *Clusterer) applyTag(ctx context.Context, photoID uuid.UUID, tagName string, score float64) error {
	if err := c.repo.ClearPersonTags(ctx, photoID); err != nil {
		return err
	}
	tagID, err := c.repo.EnsureTag(ctx, tagName)
	if err != nil {
		return err
	}
	confidence := score
	if confidence > 1.0 {
		confidence = 1.0
	}
	return c.repo.AddPhotoTag(ctx, photoID, tagID, float32(confidence), photo.PhotoTagAutoPeople)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return -1
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func randomToken() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate cluster token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
