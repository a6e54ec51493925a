package storage

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressReader_MonotonicNonDecreasing(t *testing.T) {
	data := bytes.Repeat([]byte("a"), 10*1024)
	var reported []float64
	pr := newProgressReader(bytes.NewReader(data), int64(len(data)), func(percent float64) {
		reported = append(reported, percent)
	})

	buf := make([]byte, 777)
	for {
		if _, err := pr.Read(buf); err == io.EOF {
			break
		}
	}

	assert.NotEmpty(t, reported)
	prev := 0.0
	for _, p := range reported {
		assert.GreaterOrEqual(t, p, prev)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 100.0)
		prev = p
	}
	assert.Equal(t, 100.0, reported[len(reported)-1])
}

func TestProgressReader_ClampsOverTotal(t *testing.T) {
	// Total understated: reported values must still cap at 100.
	data := bytes.Repeat([]byte("b"), 2048)
	var last float64
	pr := newProgressReader(bytes.NewReader(data), 1024, func(percent float64) {
		last = percent
	})

	_, err := io.Copy(io.Discard, pr)
	assert.NoError(t, err)
	assert.Equal(t, 100.0, last)
}

func TestProgressReader_NilCallback(t *testing.T) {
	data := bytes.Repeat([]byte("c"), 512)
	pr := newProgressReader(bytes.NewReader(data), int64(len(data)), nil)

	n, err := io.Copy(io.Discard, pr)
	assert.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
}

func TestThumbnailURL(t *testing.T) {
	url := "https://res.example.com/demo/video/upload/v123/clip.mp4"
	assert.Equal(t, "https://res.example.com/demo/video/upload/f_jpg,so_0/v123/clip.mp4", ThumbnailURL(url))

	// Only the first /upload/ segment is transformed
	url2 := "https://res.example.com/upload/video/upload/clip.mp4"
	assert.Equal(t, "https://res.example.com/upload/f_jpg,so_0/video/upload/clip.mp4", ThumbnailURL(url2))
}
