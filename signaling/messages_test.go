package signaling

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shamaton/msgpack/v2"
	"github.com/stretchr/testify/require"
)

func TestMsgRoundTrip(t *testing.T) {
	req := require.New(t)
	in := Msg{
		Type:    Signal,
		From:    uuid.New(),
		To:      uuid.New(),
		Payload: []byte(`{"sdp":"v=0..."}`),
	}

	b, err := msgpack.MarshalAsArray(in)
	req.NoError(err)

	var out Msg
	req.NoError(msgpack.UnmarshalAsArray(b, &out))
	req.Equal(in, out)
}

func TestMsgRoundTrip_PeerList(t *testing.T) {
	req := require.New(t)
	in := msgRoomUsers([]Peer{
		{Id: uuid.New(), Name: "Alice"},
		{Id: uuid.New()},
	})

	b, err := msgpack.MarshalAsArray(in)
	req.NoError(err)

	var out Msg
	req.NoError(msgpack.UnmarshalAsArray(b, &out))
	req.Equal(in.Peers, out.Peers)
	// absent targets stay absent
	req.Equal(uuid.Nil, out.To)
}

func TestMsgTypeString(t *testing.T) {
	require.Equal(t, "Signal", Signal.String())
	require.Equal(t, "MsgType(99)", MsgType(99).String())
}
