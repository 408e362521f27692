package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Frame types sent by the browser host
const (
	HostCapabilities = "capabilities"
	HostTranscript   = "transcript"
	HostListenEnd    = "listen_end"
	HostSpeechEnd    = "speech_end"
	HostError        = "error"
	HostHidden       = "hidden"
	HostToggle       = "toggle"
)

// Frame types sent to the browser host
const (
	CommandListen       = "listen"
	CommandStop         = "stop"
	CommandSpeak        = "speak"
	CommandCancelSpeech = "cancel_speech"
	CommandStatus       = "status"
)

const (
	writeWait        = 10 * time.Second
	transcriptBuffer = 16
)

// Frame is the JSON envelope for both directions
type Frame struct {
	Type        string  `json:"type"`
	Text        string  `json:"text,omitempty"`
	IsFinal     bool    `json:"isFinal,omitempty"`
	Code        string  `json:"code,omitempty"`
	Recognition bool    `json:"recognition,omitempty"`
	Synthesis   bool    `json:"synthesis,omitempty"`
	Lang        string  `json:"lang,omitempty"`
	Rate        float64 `json:"rate,omitempty"`
	Pitch       float64 `json:"pitch,omitempty"`
	Volume      float64 `json:"volume,omitempty"`
	State       State   `json:"state,omitempty"`
	Status      string  `json:"status,omitempty"`
}

// ErrBridgeClosed is returned for commands after the connection is gone
var ErrBridgeClosed = errors.New("voice bridge closed")

// WSBridge is a Bridge backed by a browser speech host on a WebSocket
type WSBridge struct {
	conn   *websocket.Conn
	lang   string
	logger *slog.Logger

	writeMu sync.Mutex

	mu          sync.Mutex
	recognition bool
	synthesis   bool
	listen      chan Transcript
	speech      chan struct{}
	closed      bool
}

// NewWSBridge wraps an upgraded connection. lang is the recognition and voice locale.
func NewWSBridge(conn *websocket.Conn, lang string, logger *slog.Logger) *WSBridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSBridge{conn: conn, lang: lang, logger: logger}
}

// Available reports whether the host announced speech recognition
func (b *WSBridge) Available() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.recognition && !b.closed
}

func (b *WSBridge) StartListening(ctx context.Context) (<-chan Transcript, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBridgeClosed
	}
	b.endListenLocked()
	ch := make(chan Transcript, transcriptBuffer)
	b.listen = ch
	b.mu.Unlock()

	if err := b.send(Frame{Type: CommandListen, Lang: b.lang}); err != nil {
		b.mu.Lock()
		b.endListenLocked()
		b.mu.Unlock()
		return nil, err
	}
	return ch, nil
}

func (b *WSBridge) Stop() error {
	b.mu.Lock()
	b.endListenLocked()
	b.mu.Unlock()
	return b.send(Frame{Type: CommandStop})
}

func (b *WSBridge) Speak(ctx context.Context, text string) (<-chan struct{}, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBridgeClosed
	}
	b.endSpeechLocked()
	done := make(chan struct{})
	if !b.synthesis {
		// recognition-only hosts keep the reply as text
		b.mu.Unlock()
		close(done)
		return done, nil
	}
	b.speech = done
	b.mu.Unlock()

	err := b.send(Frame{Type: CommandSpeak, Text: text, Lang: b.lang, Rate: 0.9, Pitch: 1.0, Volume: 0.8})
	if err != nil {
		b.mu.Lock()
		b.endSpeechLocked()
		b.mu.Unlock()
		return nil, err
	}
	return done, nil
}

func (b *WSBridge) CancelSpeech() error {
	b.mu.Lock()
	b.endSpeechLocked()
	b.mu.Unlock()
	return b.send(Frame{Type: CommandCancelSpeech})
}

// SendStatus forwards a controller state change to the host UI
func (b *WSBridge) SendStatus(state State, status string) {
	if err := b.send(Frame{Type: CommandStatus, State: state, Status: status}); err != nil {
		b.logger.Debug("failed to send voice status", "error", err)
	}
}

// Serve reads host frames until the connection or ctx ends. Toggle and
// hidden frames are passed to control; recognition and synthesis frames
// feed the open streams.
func (b *WSBridge) Serve(ctx context.Context, control func(Frame)) error {
	defer b.shutdown()

	go func() {
		<-ctx.Done()
		b.conn.Close()
	}()

	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("failed to read voice frame: %w", err)
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			b.logger.Warn("malformed voice frame", "error", err)
			continue
		}

		switch frame.Type {
		case HostCapabilities:
			b.mu.Lock()
			b.recognition = frame.Recognition
			b.synthesis = frame.Synthesis
			b.mu.Unlock()
		case HostTranscript:
			b.deliver(Transcript{Text: frame.Text, IsFinal: frame.IsFinal})
		case HostError:
			b.deliver(Transcript{Err: &RecognitionError{Code: frame.Code}})
			b.mu.Lock()
			b.endListenLocked()
			b.mu.Unlock()
		case HostListenEnd:
			b.mu.Lock()
			b.endListenLocked()
			b.mu.Unlock()
		case HostSpeechEnd:
			b.mu.Lock()
			b.endSpeechLocked()
			b.mu.Unlock()
		case HostHidden, HostToggle, CommandStop, CommandCancelSpeech:
			if control != nil {
				control(frame)
			}
		default:
			b.logger.Debug("ignoring voice frame", "type", frame.Type)
		}
	}
}

func (b *WSBridge) deliver(t Transcript) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listen == nil {
		return
	}
	select {
	case b.listen <- t:
	default:
		b.logger.Warn("dropping transcript, consumer is behind")
	}
}

func (b *WSBridge) send(frame Frame) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	b.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := b.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("failed to send %s command: %w", frame.Type, err)
	}
	return nil
}

func (b *WSBridge) endListenLocked() {
	if b.listen != nil {
		close(b.listen)
		b.listen = nil
	}
}

func (b *WSBridge) endSpeechLocked() {
	if b.speech != nil {
		close(b.speech)
		b.speech = nil
	}
}

func (b *WSBridge) shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.endListenLocked()
	b.endSpeechLocked()
}
