package encoding

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	X, Y int
	raw  []byte
	err  error
}

func (p *point) Serialize() ([]byte, error) {
	if p.raw != nil || p.err != nil {
		return p.raw, p.err
	}
	return JSON(struct{ X, Y int }{p.X, p.Y})
}

func (p *point) Deserialize(data []byte) error {
	return json.Unmarshal(data, p)
}

func TestExtractInject(t *testing.T) {
	data, err := Extract(&point{X: 1, Y: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"X":1,"Y":2}`, string(data))

	var back point
	require.NoError(t, Inject(&back, data))
	assert.Equal(t, 1, back.X)
	assert.Equal(t, 2, back.Y)
}

func TestExtractRejectsInvalid(t *testing.T) {
	_, err := Extract(&point{raw: []byte("not json")})
	assert.ErrorIs(t, err, ErrNotJSON)

	boom := errors.New("boom")
	_, err = Extract(&point{err: boom})
	assert.ErrorIs(t, err, boom)

	err = Inject(&point{}, []byte("{"))
	assert.Error(t, err)
}
