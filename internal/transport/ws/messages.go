package ws

// Типы событий, которые расходятся по подписчикам комнаты
const (
	TypeState      = "state"       // снапшот ростера при подключении
	TypeRoster     = "roster"      // обновлённый ростер после мутации
	TypePeerJoined = "peer_joined" // участник вошёл
	TypePeerLeft   = "peer_left"   // участник вышел или исключён
	TypeChat       = "chat"        // чат-сообщение
	TypeChatAck    = "chat_ack"    // подтверждение отправителю (НЕ сообщение)
	TypeSystem     = "system"      // служебное сообщение реестра
	TypeStream     = "stream"      // участник сменил флаги видео/звука
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type ParticipantState struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	IsAdmin      bool   `json:"is_admin"`
	VideoEnabled bool   `json:"video_enabled"`
	AudioEnabled bool   `json:"audio_enabled"`
	JoinedAt     int64  `json:"joined_at_unix"`
	LastSeen     int64  `json:"last_seen_unix"`
}

type StatePayload struct {
	RoomID       string             `json:"room_id"`
	Participants []ParticipantState `json:"participants"`
}

type PeerEventPayload struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
}

type ChatPayload struct {
	RoomID  string `json:"room_id"`
	UserID  string `json:"user_id"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`

	MsgID  string `json:"msg_id,omitempty"`
	TSUnix int64  `json:"ts_unix,omitempty"`
}

// для клиента: снимает pending и дедуплицирует
type ChatAckPayload struct {
	MsgID string `json:"msg_id"`
}

type SystemPayload struct {
	RoomID  string `json:"room_id"`
	MsgID   string `json:"msg_id"`
	Message string `json:"message"`
	TSUnix  int64  `json:"ts_unix"`
}

type StreamPayload struct {
	RoomID       string `json:"room_id"`
	UserID       string `json:"user_id"`
	VideoEnabled bool   `json:"video_enabled"`
	AudioEnabled bool   `json:"audio_enabled"`
}
