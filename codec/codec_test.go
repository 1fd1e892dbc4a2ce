package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/bintly"
)

type person struct {
	Name string `json:"name"`
	City string `json:"city"`
}

func (p *person) EncodeBinary(stream *bintly.Writer) error {
	stream.String(p.Name)
	stream.String(p.City)
	return nil
}

func (p *person) DecodeBinary(stream *bintly.Reader) error {
	stream.String(&p.Name)
	stream.String(&p.City)
	return nil
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json", "bintly"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("gob")
	assert.False(t, ok)
}

func TestCodecs_RoundTripStruct(t *testing.T) {
	in := person{Name: "Ada", City: "London"}

	for _, c := range []Codec{JSON{}, GoJSON{}, Bintly{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(&in)
			require.NoError(t, err)

			var out person
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}

type plainRecord struct {
	ID    int
	Name  string
	Score float64
}

func TestBintly_ReflectionFallback(t *testing.T) {
	in := plainRecord{ID: 7, Name: "Grace", Score: 0.5}

	data, err := Bintly{}.Marshal(&in)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	var out plainRecord
	require.NoError(t, Bintly{}.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestCodecs_RoundTripString(t *testing.T) {
	in := "Test1"

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(&in)
			require.NoError(t, err)

			var out string
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestMustMarshal(t *testing.T) {
	b := MustMarshal(nil, map[string]int{"a": 1})
	assert.JSONEq(t, `{"a":1}`, string(b))

	assert.Panics(t, func() {
		MustMarshal(JSON{}, make(chan int))
	})
}
