package decode

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synoptic/internal/logger"
	apperrors "synoptic/pkg/errors"
)

type fakeCodec struct {
	openErr  error
	messages []fakeMessage
}

type fakeMessage struct {
	fields map[string]interface{}
	err    error
}

func (c *fakeCodec) Open(_ context.Context, path string) (MessageIterator, error) {
	if c.openErr != nil {
		return nil, c.openErr
	}
	return &fakeIterator{messages: c.messages}, nil
}

type fakeIterator struct {
	messages []fakeMessage
	pos      int
}

func (it *fakeIterator) Next() (map[string]interface{}, error) {
	if it.pos >= len(it.messages) {
		return nil, io.EOF
	}
	msg := it.messages[it.pos]
	it.pos++
	return msg.fields, msg.err
}

func (it *fakeIterator) Close() error {
	return nil
}

var testKeys = []string{"typicalYear", "blockNumber", "stationNumber"}

func TestAdapter_DecodeFile(t *testing.T) {
	codec := &fakeCodec{messages: []fakeMessage{
		{fields: map[string]interface{}{
			"typicalYear":   float64(2024),
			"blockNumber":   float64(60),
			"stationNumber": float64(155),
			"unconfigured":  "ignored",
		}},
		{fields: map[string]interface{}{
			"typicalYear":   float64(2024),
			"blockNumber":   float64(60),
			"stationNumber": float64(230),
		}},
	}}

	a := NewAdapter(codec, testKeys, nil, logger.NopLogger())
	records, err := a.DecodeFile(context.Background(), "/data/60155.bufr4")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 0, records[0].MessageNumber)
	assert.Equal(t, 1, records[1].MessageNumber)
	assert.Equal(t, float64(155), records[0].Fields["stationNumber"])
	assert.Equal(t, float64(230), records[1].Fields["stationNumber"])
	assert.NotContains(t, records[0].Fields, "unconfigured")
}

func TestAdapter_DecodeFile_MissingSentinelsBecomeNil(t *testing.T) {
	codec := &fakeCodec{messages: []fakeMessage{
		{fields: map[string]interface{}{
			"typicalYear":   missingLong,
			"blockNumber":   missingDouble,
			"stationNumber": float64(155),
		}},
	}}

	a := NewAdapter(codec, testKeys, nil, logger.NopLogger())
	records, err := a.DecodeFile(context.Background(), "/data/60155.bufr4")
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Nil(t, records[0].Fields["typicalYear"])
	assert.Nil(t, records[0].Fields["blockNumber"])
	assert.Equal(t, float64(155), records[0].Fields["stationNumber"])
}

func TestAdapter_DecodeFile_AbsentKeysBecomeNil(t *testing.T) {
	codec := &fakeCodec{messages: []fakeMessage{
		{fields: map[string]interface{}{"stationNumber": float64(155)}},
	}}

	a := NewAdapter(codec, testKeys, nil, logger.NopLogger())
	records, err := a.DecodeFile(context.Background(), "/data/60155.bufr4")
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Contains(t, records[0].Fields, "typicalYear")
	assert.Nil(t, records[0].Fields["typicalYear"])
	assert.Contains(t, records[0].Fields, "blockNumber")
	assert.Nil(t, records[0].Fields["blockNumber"])
}

func TestAdapter_DecodeFile_AdditionalKeysExtracted(t *testing.T) {
	codec := &fakeCodec{messages: []fakeMessage{
		{fields: map[string]interface{}{
			"stationNumber":  float64(155),
			"airTemperature": float64(288.15),
		}},
	}}

	a := NewAdapter(codec, testKeys, []string{"airTemperature"}, logger.NopLogger())
	records, err := a.DecodeFile(context.Background(), "/data/60155.bufr4")
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, float64(288.15), records[0].Fields["airTemperature"])
}

func TestAdapter_DecodeFile_OpenError(t *testing.T) {
	codec := &fakeCodec{openErr: errors.New("corrupt header")}

	a := NewAdapter(codec, testKeys, nil, logger.NopLogger())
	_, err := a.DecodeFile(context.Background(), "/data/60155.bufr4")
	require.Error(t, err)
	assert.True(t, apperrors.IsDecode(err))
}

func TestAdapter_DecodeFile_FirstMessageErrorFails(t *testing.T) {
	codec := &fakeCodec{messages: []fakeMessage{
		{err: errors.New("unreadable sub-message")},
		{fields: map[string]interface{}{"stationNumber": float64(155)}},
	}}

	a := NewAdapter(codec, testKeys, nil, logger.NopLogger())
	_, err := a.DecodeFile(context.Background(), "/data/60155.bufr4")
	require.Error(t, err)
	assert.True(t, apperrors.IsDecode(err))
}

func TestAdapter_DecodeFile_LaterMessageErrorSkips(t *testing.T) {
	codec := &fakeCodec{messages: []fakeMessage{
		{fields: map[string]interface{}{"stationNumber": float64(155)}},
		{err: errors.New("unreadable sub-message")},
		{fields: map[string]interface{}{"stationNumber": float64(230)}},
	}}

	a := NewAdapter(codec, testKeys, nil, logger.NopLogger())
	records, err := a.DecodeFile(context.Background(), "/data/60155.bufr4")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 0, records[0].MessageNumber)
	assert.Equal(t, 2, records[1].MessageNumber)
	assert.Equal(t, float64(230), records[1].Fields["stationNumber"])
}

func TestAdapter_DecodeFile_Idempotent(t *testing.T) {
	codec := &fakeCodec{messages: []fakeMessage{
		{fields: map[string]interface{}{
			"typicalYear":   float64(2024),
			"blockNumber":   missingLong,
			"stationNumber": float64(155),
		}},
	}}

	a := NewAdapter(codec, testKeys, nil, logger.NopLogger())

	first, err := a.DecodeFile(context.Background(), "/data/60155.bufr4")
	require.NoError(t, err)
	second, err := a.DecodeFile(context.Background(), "/data/60155.bufr4")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
