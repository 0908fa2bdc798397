package main

import (
	"fmt"
	"strings"
	"time"

	wsdto "bustrack/internal/driver-service/core/domain/websocket_dto"

	"github.com/gorilla/websocket"
)

const wsReplyWait = 10 * time.Second

type WebSocketClient struct {
	conn *websocket.Conn
}

func NewWebSocketClient() *WebSocketClient {
	return &WebSocketClient{}
}

// Connect dials the location stream and authenticates with token.
func (w *WebSocketClient) Connect(baseURL, token string) error {
	url := "ws" + strings.TrimPrefix(baseURL, "http") + WSLocationPath

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("connecting to websocket: %w", err)
	}
	w.conn = conn

	reply, err := w.exchange(wsdto.AuthMessage{Token: token})
	if err != nil {
		w.conn.Close()
		return err
	}
	if reply.Type != wsdto.MessageTypeAuth || !reply.Success {
		w.conn.Close()
		return fmt.Errorf("websocket authentication failed: %s", reply.Message)
	}
	return nil
}

// Send pushes one position and waits for its ack.
func (w *WebSocketClient) Send(lat, lng float64) error {
	reply, err := w.exchange(wsdto.LocationMessage{Latitude: &lat, Longitude: &lng})
	if err != nil {
		return err
	}
	if reply.Type == wsdto.MessageTypeError {
		return fmt.Errorf("location rejected: %s", reply.Message)
	}
	return nil
}

func (w *WebSocketClient) exchange(msg any) (wsdto.Reply, error) {
	if err := w.conn.WriteJSON(msg); err != nil {
		return wsdto.Reply{}, fmt.Errorf("writing message: %w", err)
	}
	w.conn.SetReadDeadline(time.Now().Add(wsReplyWait))

	var reply wsdto.Reply
	if err := w.conn.ReadJSON(&reply); err != nil {
		return wsdto.Reply{}, fmt.Errorf("reading reply: %w", err)
	}
	return reply, nil
}

func (w *WebSocketClient) Close() error {
	if w.conn == nil {
		return nil
	}
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return w.conn.Close()
}
