// Package modelsrc resolves model references into byte streams for
// stream-based construction. A reference is either a local file path or a
// ws:// / wss:// URL of a model server that pushes the file as binary
// frames.
package modelsrc

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Open returns a byte stream for ref. Callers own the stream and must
// close it; when the stream feeds a loader, the loader's close releases it
// through the pinned reference instead.
func Open(ref string) (io.ReadCloser, error) {
	if strings.HasPrefix(ref, "ws://") || strings.HasPrefix(ref, "wss://") {
		return DialRemote(ref)
	}
	f, err := os.Open(ref)
	if err != nil {
		return nil, fmt.Errorf("modelsrc: open %s: %w", ref, err)
	}
	return f, nil
}

// DialRemote connects to a websocket model server and exposes its binary
// frames as one contiguous read stream. A normal close from the server
// maps to io.EOF; anything else is a read error the loader will capture as
// a fault.
func DialRemote(url string) (io.ReadCloser, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("modelsrc: dial %s: %w", url, err)
	}
	log.Info().Str("url", url).Msg("modelsrc: remote model stream opened")
	return &wsStream{conn: conn}, nil
}

type wsStream struct {
	conn  *websocket.Conn
	frame io.Reader
	done  bool
}

func (s *wsStream) Read(p []byte) (int, error) {
	for {
		if s.done {
			return 0, io.EOF
		}
		if s.frame != nil {
			n, err := s.frame.Read(p)
			if err == io.EOF {
				s.frame = nil
				if n > 0 {
					return n, nil
				}
				continue
			}
			return n, err
		}
		mt, r, err := s.conn.NextReader()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.done = true
				return 0, io.EOF
			}
			return 0, err
		}
		if mt != websocket.BinaryMessage {
			// control/text frames are not model bytes
			continue
		}
		s.frame = r
	}
}

func (s *wsStream) Close() error {
	s.done = true
	return s.conn.Close()
}
