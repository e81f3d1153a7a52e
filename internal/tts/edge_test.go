package tts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pp-group/edge-tts-go/biz/service/tts/edge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdgeEngine_Synthesize(t *testing.T) {
	var got EdgeParams
	e := NewEdgeEngine(EdgeConfig{})
	e.stream = func(_ context.Context, text string, ep EdgeParams) ([]byte, error) {
		got = ep
		return []byte("ID3-mp3"), nil
	}

	audio, err := e.Synthesize(context.Background(), "hi", Params{Speed: 1.25, Pitch: 0.5, Volume: 0.8})
	require.NoError(t, err)
	assert.Equal(t, FormatMP3, audio.Format)
	assert.Equal(t, "en-US-AriaNeural", audio.Voice)
	assert.Equal(t, EdgeParams{Rate: "+25%", Volume: "-20%", Voice: "en-US-AriaNeural"}, got)
}

func TestEdgeEngine_ExplicitVoice(t *testing.T) {
	e := NewEdgeEngine(EdgeConfig{DefaultVoice: "de-DE-KatjaNeural"})
	e.stream = func(_ context.Context, _ string, ep EdgeParams) ([]byte, error) {
		return []byte(ep.Voice), nil
	}

	audio, err := e.Synthesize(context.Background(), "hi", Params{Speed: 1, Volume: 1, Voice: "fr-FR-DeniseNeural"})
	require.NoError(t, err)
	assert.Equal(t, "fr-FR-DeniseNeural", string(audio.Data))

	audio, err = e.Synthesize(context.Background(), "hi", Params{Speed: 1, Volume: 1})
	require.NoError(t, err)
	assert.Equal(t, "de-DE-KatjaNeural", string(audio.Data))
}

func TestEdgeEngine_Failures(t *testing.T) {
	e := NewEdgeEngine(EdgeConfig{})

	e.stream = func(context.Context, string, EdgeParams) ([]byte, error) {
		return nil, errors.New("websocket: bad handshake")
	}
	_, err := e.Synthesize(context.Background(), "hi", Params{Speed: 1, Volume: 1})
	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, EngineEdge, be.Engine)
	assert.Contains(t, err.Error(), "bad handshake")

	e.stream = func(context.Context, string, EdgeParams) ([]byte, error) { return nil, nil }
	_, err = e.Synthesize(context.Background(), "hi", Params{Speed: 1, Volume: 1, Voice: "xx-Nobody"})
	require.True(t, errors.As(err, &be))
	assert.Contains(t, err.Error(), "xx-Nobody")
}

func TestEdgeEngine_ListVoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"Name":"Microsoft Server Speech Text to Speech Voice (en-US, AriaNeural)","ShortName":"en-US-AriaNeural","Gender":"Female","Locale":"en-US","SuggestedCodec":"audio-24khz-48kbitrate-mono-mp3","FriendlyName":"Microsoft Aria Online (Natural) - English (United States)"},
			{"ShortName":"ja-JP-KeitaNeural","Gender":"Male","Locale":"ja-JP","SuggestedCodec":"riff-16khz-16bit-mono-pcm"}
		]`)
	}))
	defer server.Close()

	e := NewEdgeEngine(EdgeConfig{VoicesURL: server.URL})
	voices, err := e.ListVoices(context.Background())
	require.NoError(t, err)
	require.Len(t, voices, 2)

	assert.Equal(t, Voice{
		ID:         "en-US-AriaNeural",
		Name:       "Microsoft Aria Online (Natural) - English (United States)",
		Locale:     "en-US",
		Gender:     "Female",
		SampleRate: 24000,
	}, voices[0])
	assert.Equal(t, "ja-JP-KeitaNeural", voices[1].Name)
	assert.Equal(t, 16000, voices[1].SampleRate)
}

func TestEdgeEngine_ListVoicesError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := NewEdgeEngine(EdgeConfig{VoicesURL: server.URL}).ListVoices(context.Background())
	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.Contains(t, err.Error(), "403")
}

func TestCodecSampleRate(t *testing.T) {
	assert.Equal(t, 24000, codecSampleRate("audio-24khz-48kbitrate-mono-mp3"))
	assert.Equal(t, 0, codecSampleRate("opus"))
	assert.Equal(t, 0, codecSampleRate(""))
}

func audioMsg(index int, data string) map[string]interface{} {
	return map[string]interface{}{
		"type": "audio",
		"data": edge.AudioData{Data: []byte(data), Index: index},
	}
}

func endMsg() map[string]interface{} { return map[string]interface{}{"end": ""} }

// feed sends msgs on a channel that is left open, as the library does.
func feed(msgs ...map[string]interface{}) <-chan map[string]interface{} {
	ch := make(chan map[string]interface{}, len(msgs))
	for _, m := range msgs {
		ch <- m
	}
	return ch
}

func TestCollectEdge_OrdersPartsByIndex(t *testing.T) {
	ch := feed(
		audioMsg(1, "C"),
		audioMsg(0, "A"),
		map[string]interface{}{"type": "WordBoundary", "offset": 100},
		audioMsg(1, "D"),
		endMsg(),
		audioMsg(0, "B"),
		endMsg(),
	)

	data, err := collectEdge(context.Background(), ch, 2)
	require.NoError(t, err)
	assert.Equal(t, "ABCD", string(data))
}

func TestCollectEdge_StopsAfterLastEnd(t *testing.T) {
	ch := feed(audioMsg(0, "mp3"), endMsg(), audioMsg(0, "late"))

	data, err := collectEdge(context.Background(), ch, 1)
	require.NoError(t, err)
	assert.Equal(t, "mp3", string(data))
}

func TestCollectEdge_Errors(t *testing.T) {
	cases := map[string]interface{}{
		"no audio":  edge.NoAudioReceived{Message: "No audio was received."},
		"websocket": edge.WebSocketError{Message: "connection reset"},
		"unknown":   edge.UnknownResponse{Message: "not recognized"},
	}
	for name, e := range cases {
		t.Run(name, func(t *testing.T) {
			ch := feed(audioMsg(0, "x"), map[string]interface{}{"error": e})
			_, err := collectEdge(context.Background(), ch, 2)
			require.Error(t, err)
			assert.Contains(t, err.Error(), edgeErrorMessage(e))
		})
	}
}

func TestCollectEdge_ContextBoundsOpenStream(t *testing.T) {
	ch := feed(audioMsg(0, "partial"))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := collectEdge(ctx, ch, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCollectEdge_ClosedEarly(t *testing.T) {
	ch := make(chan map[string]interface{}, 2)
	ch <- audioMsg(0, "x")
	ch <- endMsg()
	close(ch)

	_, err := collectEdge(context.Background(), ch, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
}

func TestEdgeEngine_SynthesizeTimesOutOnStalledStream(t *testing.T) {
	e := NewEdgeEngine(EdgeConfig{})
	e.stream = func(ctx context.Context, _ string, _ EdgeParams) ([]byte, error) {
		return collectEdge(ctx, make(chan map[string]interface{}), 1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := e.Synthesize(ctx, "hi", Params{Speed: 1, Volume: 1})
	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
