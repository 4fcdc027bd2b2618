package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyay-sahayak/nyay-core/internal/adapters/driven/index/flat"
	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	embedding []float32
	embedFn   func(text string) []float32
	embedErr  error
	dims      int
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.embedFn != nil {
		return m.embedFn(text), nil
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i, text := range texts {
		if m.embedFn != nil {
			result[i] = m.embedFn(text)
		} else {
			result[i] = m.embedding
		}
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return 384
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockVectorIndex implements driven.VectorIndex for testing.
type mockVectorIndex struct {
	hits      []driven.VectorHit
	count     int
	dims      int
	searchErr error
	saveErr   error
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:k], nil
}

func (m *mockVectorIndex) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return 384
}

func (m *mockVectorIndex) Len() int {
	if m.count > 0 {
		return m.count
	}
	return len(m.hits)
}

func (m *mockVectorIndex) Save(_ string) error {
	return m.saveErr
}

func (m *mockVectorIndex) Close() error {
	return nil
}

// --- Test fixtures ---

// testChunkAt builds a chunk with complete metadata at a document
// position, optionally scoped to a city and incident type.
func testChunkAt(doc string, position int, text, city, incidentType string) domain.Chunk {
	return domain.Chunk{
		ID:       domain.ChunkID(doc, position),
		Document: doc,
		Position: position,
		Text:     text,
		Meta: domain.DocumentMeta{
			SourceName:    "Indian Penal Code",
			URL:           "https://example.org/ipc",
			DatePublished: "2024-01-01",
			Jurisdiction:  "India",
			DocType:       "act",
			City:          city,
			IncidentType:  incidentType,
		},
	}
}

// keywordEmbedding maps text onto fixed topic axes by keyword count.
// Deterministic: identical text always embeds identically.
func keywordEmbedding(text string) []float32 {
	lower := strings.ToLower(text)
	axes := [][]string{
		{"theft", "stolen", "steal", "phone"},
		{"cheat", "fraud", "induc"},
		{"hack", "computer", "online"},
		{"domestic", "violence", "residence"},
	}
	vec := make([]float32, len(axes))
	for i, words := range axes {
		for _, w := range words {
			vec[i] += float32(strings.Count(lower, w))
		}
	}
	// Smooth so no vector is ever all-zero.
	for i := range vec {
		vec[i] += 0.01
	}
	return vec
}

// publishedHolder builds a holder with a live generation over the
// given chunks and canned hits.
func publishedHolder(hits []driven.VectorHit, chunks ...domain.Chunk) *GenerationHolder {
	holder := NewGenerationHolder()
	holder.Publish(&Generation{
		Info: domain.IndexGeneration{
			Number:     1,
			BuiltAt:    time.Now().UTC(),
			Model:      "mock-embed",
			Dimensions: 384,
			ChunkCount: len(chunks),
		},
		Index:  &mockVectorIndex{hits: hits, count: len(chunks)},
		Chunks: chunks,
	})
	return holder
}

// --- Tests ---

func TestNewRetriever_TopKFallback(t *testing.T) {
	r := NewRetriever(&mockEmbeddingService{}, NewGenerationHolder(), 0)
	assert.Equal(t, DefaultTopK, r.TopK())

	r = NewRetriever(&mockEmbeddingService{}, NewGenerationHolder(), 5)
	assert.Equal(t, 5, r.TopK())
}

func TestRetriever_NoGeneration(t *testing.T) {
	r := NewRetriever(&mockEmbeddingService{}, NewGenerationHolder(), 3)

	_, err := r.Retrieve(context.Background(), "my phone was stolen", domain.AnswerOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRetrievalUnavailable)
}

func TestRetriever_EmbedError(t *testing.T) {
	cause := errors.New("connection refused")
	embedder := &mockEmbeddingService{embedErr: cause}
	holder := publishedHolder(nil, testChunkAt("ipc", 0, "theft text", "", ""))

	r := NewRetriever(embedder, holder, 3)
	_, err := r.Retrieve(context.Background(), "my phone was stolen", domain.AnswerOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, err, cause)
}

func TestRetriever_ReturnsRankedPassages(t *testing.T) {
	chunks := []domain.Chunk{
		testChunkAt("ipc", 0, "cheating and fraud", "", ""),
		testChunkAt("ipc", 1, "theft of movable property", "", ""),
		testChunkAt("it_act", 0, "identity theft online", "", ""),
	}
	hits := []driven.VectorHit{
		{Position: 1, Score: 0.93},
		{Position: 2, Score: 0.71},
		{Position: 0, Score: 0.42},
	}
	holder := publishedHolder(hits, chunks...)

	r := NewRetriever(&mockEmbeddingService{embedding: []float32{1, 0, 0}}, holder, 3)
	passages, err := r.Retrieve(context.Background(), "my phone was stolen", domain.AnswerOptions{})

	require.NoError(t, err)
	require.Len(t, passages, 3)
	assert.Equal(t, "ipc__chunk1", passages[0].Chunk.ID)
	assert.Equal(t, 0.93, passages[0].Score)
	assert.Equal(t, "it_act__chunk0", passages[1].Chunk.ID)
	assert.Equal(t, "ipc__chunk0", passages[2].Chunk.ID)
}

func TestRetriever_HonoursTopK(t *testing.T) {
	chunks := []domain.Chunk{
		testChunkAt("ipc", 0, "first", "", ""),
		testChunkAt("ipc", 1, "second", "", ""),
		testChunkAt("ipc", 2, "third", "", ""),
	}
	hits := []driven.VectorHit{
		{Position: 0, Score: 0.9},
		{Position: 1, Score: 0.8},
		{Position: 2, Score: 0.7},
	}
	holder := publishedHolder(hits, chunks...)

	r := NewRetriever(&mockEmbeddingService{embedding: []float32{1}}, holder, 2)
	passages, err := r.Retrieve(context.Background(), "my phone was stolen", domain.AnswerOptions{})

	require.NoError(t, err)
	assert.Len(t, passages, 2)
}

func TestRetriever_FiltersAfterRanking(t *testing.T) {
	chunks := []domain.Chunk{
		testChunkAt("guide", 0, "delhi cyber cell", "New Delhi", "cyber_fraud"),
		testChunkAt("guide", 1, "mumbai police", "Mumbai", "theft"),
		testChunkAt("guide", 2, "unscoped statute", "", ""),
	}
	hits := []driven.VectorHit{
		{Position: 0, Score: 0.9},
		{Position: 1, Score: 0.8},
		{Position: 2, Score: 0.7},
	}
	holder := publishedHolder(hits, chunks...)
	r := NewRetriever(&mockEmbeddingService{embedding: []float32{1}}, holder, 3)

	// City filter keeps only the Delhi-scoped chunk; fewer than topK
	// passages come back rather than widening the search.
	passages, err := r.Retrieve(context.Background(), "someone hacked my bank account",
		domain.AnswerOptions{City: "delhi"})

	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "guide__chunk0", passages[0].Chunk.ID)

	// Incident filter is independent of city.
	passages, err = r.Retrieve(context.Background(), "someone hacked my bank account",
		domain.AnswerOptions{IncidentType: "theft"})

	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "guide__chunk1", passages[0].Chunk.ID)

	// No filters keeps everything.
	passages, err = r.Retrieve(context.Background(), "someone hacked my bank account", domain.AnswerOptions{})

	require.NoError(t, err)
	assert.Len(t, passages, 3)
}

func TestRetriever_FiltersCanEmptyResult(t *testing.T) {
	chunks := []domain.Chunk{
		testChunkAt("guide", 0, "mumbai police", "Mumbai", ""),
	}
	hits := []driven.VectorHit{{Position: 0, Score: 0.9}}
	holder := publishedHolder(hits, chunks...)

	r := NewRetriever(&mockEmbeddingService{embedding: []float32{1}}, holder, 3)
	passages, err := r.Retrieve(context.Background(), "someone hacked my bank account",
		domain.AnswerOptions{City: "Kolkata"})

	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestRetriever_MisalignedHitPosition(t *testing.T) {
	chunks := []domain.Chunk{testChunkAt("ipc", 0, "text", "", "")}
	hits := []driven.VectorHit{{Position: 7, Score: 0.9}}
	holder := publishedHolder(hits, chunks...)

	r := NewRetriever(&mockEmbeddingService{embedding: []float32{1}}, holder, 3)
	_, err := r.Retrieve(context.Background(), "my phone was stolen", domain.AnswerOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexCorrupt)
}

func TestRetriever_SearchError(t *testing.T) {
	holder := NewGenerationHolder()
	holder.Publish(&Generation{
		Info:   domain.IndexGeneration{Number: 1},
		Index:  &mockVectorIndex{searchErr: errors.New("index closed")},
		Chunks: []domain.Chunk{testChunkAt("ipc", 0, "text", "", "")},
	})

	r := NewRetriever(&mockEmbeddingService{embedding: []float32{1}}, holder, 3)
	_, err := r.Retrieve(context.Background(), "my phone was stolen", domain.AnswerOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRetrievalUnavailable)
}

func TestRetriever_TheftQueryRanksTheftStatuteFirst(t *testing.T) {
	chunks := []domain.Chunk{
		testChunkAt("ipc_379", 0,
			"Whoever intends to take dishonestly any movable property commits theft. Theft of a mobile phone or other stolen goods is punishable with imprisonment.", "", ""),
		testChunkAt("ipc_420", 0,
			"Cheating and dishonestly inducing delivery of property. Fraud of this kind is punishable with imprisonment and fine.", "", ""),
		testChunkAt("it_act_66", 0,
			"Hacking a computer system or committing online fraud through a computer resource.", "", ""),
		testChunkAt("dv_act", 0,
			"Protection of women from domestic violence, including residence orders and protection orders.", "", ""),
	}

	vectors := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		vectors[i] = keywordEmbedding(chunk.Text)
	}
	index, err := flat.NewFactory().Build(vectors)
	require.NoError(t, err)

	holder := NewGenerationHolder()
	holder.Publish(&Generation{
		Info: domain.IndexGeneration{
			Number:     1,
			BuiltAt:    time.Now().UTC(),
			Model:      "mock-embed",
			Dimensions: index.Dimensions(),
			ChunkCount: len(chunks),
		},
		Index:  index,
		Chunks: chunks,
	})

	r := NewRetriever(&mockEmbeddingService{embedFn: keywordEmbedding}, holder, 3)
	passages, err := r.Retrieve(context.Background(),
		"my phone was stolen at the railway station", domain.AnswerOptions{})

	require.NoError(t, err)
	require.Len(t, passages, 3)
	assert.Equal(t, "ipc_379__chunk0", passages[0].Chunk.ID,
		"the theft statute must rank first for a theft query")
	for i := 1; i < len(passages); i++ {
		assert.LessOrEqual(t, passages[i].Score, passages[i-1].Score)
	}
}

func TestRetriever_ConcurrentPublishNeverTearsGeneration(t *testing.T) {
	holder := NewGenerationHolder()
	r := NewRetriever(&mockEmbeddingService{embedding: []float32{1}}, holder, 3)

	// Each generation labels every chunk with its number; a torn read
	// would mix labels or trip the position bound check.
	publish := func(n uint64) {
		count := 1 + int(n%3)
		chunks := make([]domain.Chunk, count)
		hits := make([]driven.VectorHit, count)
		for i := range chunks {
			chunks[i] = testChunkAt(fmt.Sprintf("gen%04d", n), i,
				fmt.Sprintf("generation %d chunk %d", n, i), "", "")
			hits[i] = driven.VectorHit{Position: i, Score: 1 - float64(i)/10}
		}
		holder.Publish(&Generation{
			Info:   domain.IndexGeneration{Number: n, ChunkCount: count},
			Index:  &mockVectorIndex{hits: hits, count: count},
			Chunks: chunks,
		})
	}
	publish(1)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for reader := 0; reader < 4; reader++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				passages, err := r.Retrieve(context.Background(), "my phone was stolen", domain.AnswerOptions{})
				if !assert.NoError(t, err) {
					return
				}
				if !assert.NotEmpty(t, passages) {
					return
				}
				doc := passages[0].Chunk.Document
				for _, p := range passages {
					if p.Chunk.Document != doc {
						t.Errorf("passages span generations: %s and %s", doc, p.Chunk.Document)
						return
					}
				}
			}
		}()
	}

	for n := uint64(2); n <= 200; n++ {
		publish(n)
	}
	close(stop)
	wg.Wait()
}

func TestGenerationHolder_SnapshotSurvivesPublish(t *testing.T) {
	holder := NewGenerationHolder()
	assert.Nil(t, holder.Current())

	first := &Generation{Info: domain.IndexGeneration{Number: 1}}
	holder.Publish(first)

	snapshot := holder.Current()
	require.NotNil(t, snapshot)

	holder.Publish(&Generation{Info: domain.IndexGeneration{Number: 2}})

	// The old snapshot is still intact for in-flight readers.
	assert.Equal(t, uint64(1), snapshot.Info.Number)
	assert.Equal(t, uint64(2), holder.Current().Info.Number)
}
