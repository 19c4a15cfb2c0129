package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeList_JSONArray(t *testing.T) {
	items := DecodeList([]byte(`["Beverly Hills", "Bev Hills"]`))
	assert.Equal(t, []string{"Beverly Hills", "Bev Hills"}, items)
}

func TestDecodeList_SingleItem(t *testing.T) {
	items := DecodeList([]byte(`["310"]`))
	assert.Equal(t, []string{"310"}, items)
}

func TestDecodeList_PreservesOrder(t *testing.T) {
	items := DecodeList([]byte(`["c", "a", "b"]`))
	assert.Equal(t, []string{"c", "a", "b"}, items)
}

func TestDecodeList_Empty(t *testing.T) {
	assert.Nil(t, DecodeList(nil))
	assert.Nil(t, DecodeList([]byte("")))
	assert.Nil(t, DecodeList([]byte("   ")))
}

func TestDecodeList_EmptyArray(t *testing.T) {
	assert.Nil(t, DecodeList([]byte(`[]`)))
}

func TestDecodeList_Undecodable(t *testing.T) {
	// Garbage blobs yield nothing, never an error: a record without
	// aliases is a normal record.
	assert.Nil(t, DecodeList([]byte(`not json`)))
	assert.Nil(t, DecodeList([]byte(`{"a": 1}`)))
}
