package registry

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cwrk-planet/meet-service/internal/domain"

	"github.com/google/uuid"
)

const (
	DefaultCodeLength       = 6
	DefaultChatHistoryLimit = 100
	DefaultMaxParticipants  = 10

	defaultRoomName = "New Meeting"
)

type Config struct {
	CodeLength       int
	ChatHistoryLimit int
	MaxParticipants  int // 0 — без лимита
}

func (c *Config) applyDefaults() {
	if c.CodeLength <= 0 {
		c.CodeLength = DefaultCodeLength
	}
	if c.ChatHistoryLimit <= 0 {
		c.ChatHistoryLimit = DefaultChatHistoryLimit
	}
	if c.MaxParticipants < 0 {
		c.MaxParticipants = DefaultMaxParticipants
	}
}

// Registry владеет всем состоянием комнат. Мутации одной комнаты
// сериализуются её мьютексом, разные комнаты не блокируют друг друга.
// Записи комнат живут до завершения процесса и никогда не удаляются.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room

	cfg Config
}

type room struct {
	mu sync.Mutex

	id        string
	name      string
	creatorID string
	createdAt time.Time
	active    bool
	maxParts  int
	histLimit int

	participants map[string]*domain.Participant
	order        []string // порядок вступления, для стабильного ростера
	log          []domain.ChatMessage
}

func New(cfg Config) *Registry {
	cfg.applyDefaults()
	return &Registry{
		rooms: make(map[string]*room),
		cfg:   cfg,
	}
}

// NormalizeCode приводит код комнаты к канонической форме перед поиском.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *Registry) lookup(roomID string) (*room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	return rm, ok
}

// CreateRoom регистрирует комнату с создателем в качестве единственного
// участника. Код генерируется с проверкой коллизий под блокировкой реестра.
func (r *Registry) CreateRoom(name, creatorID, creatorName string) (domain.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultRoomName
	}
	creatorID = strings.TrimSpace(creatorID)
	creatorName = strings.TrimSpace(creatorName)
	if creatorID == "" || creatorName == "" {
		return domain.Room{}, domain.ErrInvalidInput
	}

	now := time.Now()
	rm := &room{
		name:         name,
		creatorID:    creatorID,
		createdAt:    now,
		active:       true,
		maxParts:     r.cfg.MaxParticipants,
		histLimit:    r.cfg.ChatHistoryLimit,
		participants: make(map[string]*domain.Participant),
	}
	rm.insert(&domain.Participant{
		UserID:       creatorID,
		Name:         creatorName,
		VideoEnabled: true,
		AudioEnabled: true,
		JoinedAt:     now,
		LastSeen:     now,
	})

	r.mu.Lock()
	for {
		id := newCode(r.cfg.CodeLength)
		if _, taken := r.rooms[id]; taken {
			continue
		}
		rm.id = id
		rm.participants[creatorID].RoomID = id
		r.rooms[id] = rm
		break
	}
	snap := rm.snapshotRoom()
	r.mu.Unlock()

	return snap, nil
}

// GetRoom возвращает снимок комнаты по коду.
func (r *Registry) GetRoom(roomID string) (domain.Room, error) {
	rm, ok := r.lookup(roomID)
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.snapshotRoom(), nil
}

type JoinResult struct {
	Participant domain.Participant
	Roster      []domain.Participant
	AlreadyIn   bool
	System      *domain.ChatMessage // nil при повторном входе
}

// JoinRoom добавляет участника. Повторный вход того же userID идемпотентен:
// существующая запись возвращается без сброса флагов.
func (r *Registry) JoinRoom(roomID, userID, userName string) (JoinResult, error) {
	userID = strings.TrimSpace(userID)
	userName = strings.TrimSpace(userName)
	if userID == "" || userName == "" {
		return JoinResult{}, domain.ErrInvalidInput
	}

	rm, ok := r.lookup(roomID)
	if !ok {
		return JoinResult{}, domain.ErrRoomNotFound
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if !rm.active {
		return JoinResult{}, domain.ErrRoomInactive
	}

	if p, ok := rm.participants[userID]; ok {
		return JoinResult{
			Participant: rm.view(p),
			Roster:      rm.roster(),
			AlreadyIn:   true,
		}, nil
	}

	if rm.maxParts > 0 && len(rm.participants) >= rm.maxParts {
		return JoinResult{}, domain.ErrRoomFull
	}

	now := time.Now()
	rm.insert(&domain.Participant{
		RoomID:       rm.id,
		UserID:       userID,
		Name:         userName,
		VideoEnabled: true,
		AudioEnabled: true,
		JoinedAt:     now,
		LastSeen:     now,
	})
	sys := rm.appendSystem(fmt.Sprintf("%s joined the meeting", userName))

	return JoinResult{
		Participant: rm.view(rm.participants[userID]),
		Roster:      rm.roster(),
		System:      &sys,
	}, nil
}

type LeaveResult struct {
	Left       bool // false — участника и так не было
	RoomActive bool
	System     *domain.ChatMessage
}

// LeaveRoom убирает участника. Отсутствие комнаты или участника — не ошибка.
// Единственный путь деактивации: комната, оставшаяся пустой, помечается
// неактивной и больше не принимает вход.
func (r *Registry) LeaveRoom(roomID, userID string) LeaveResult {
	rm, ok := r.lookup(roomID)
	if !ok {
		return LeaveResult{}
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	p, ok := rm.participants[userID]
	if !ok {
		return LeaveResult{RoomActive: rm.active}
	}

	rm.remove(userID)
	sys := rm.appendSystem(fmt.Sprintf("%s left the meeting", p.Name))
	if len(rm.participants) == 0 {
		rm.active = false
	}

	return LeaveResult{Left: true, RoomActive: rm.active, System: &sys}
}

// PostMessage добавляет сообщение в журнал комнаты и возвращает его
// с присвоенным id и временем. Журнал ограничен: старейшие записи вытесняются.
func (r *Registry) PostMessage(roomID, userID, userName, text string) (domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatMessage{}, domain.ErrEmptyMessage
	}

	rm, ok := r.lookup(roomID)
	if !ok {
		return domain.ChatMessage{}, domain.ErrRoomNotFound
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if !rm.active {
		return domain.ChatMessage{}, domain.ErrRoomInactive
	}

	return rm.appendLog(userID, userName, text, false), nil
}

// ListParticipants возвращает снимок ростера в порядке вступления.
// Неизвестная комната даёт пустой срез, не ошибку.
func (r *Registry) ListParticipants(roomID string) []domain.Participant {
	rm, ok := r.lookup(roomID)
	if !ok {
		return []domain.Participant{}
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.roster()
}

// Messages возвращает копию журнала чата. Неизвестная комната — пустой срез.
func (r *Registry) Messages(roomID string) []domain.ChatMessage {
	rm, ok := r.lookup(roomID)
	if !ok {
		return []domain.ChatMessage{}
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	out := make([]domain.ChatMessage, len(rm.log))
	copy(out, rm.log)
	return out
}

type MuteResult struct {
	Changed bool // false — цели не было в комнате
	Muted   bool // новое состояние
	Target  domain.Participant
	System  *domain.ChatMessage
}

// MuteParticipant переключает звук участника от имени администратора.
// Служебное сообщение отражает новое состояние.
func (r *Registry) MuteParticipant(roomID, actorID, targetID string) (MuteResult, error) {
	rm, ok := r.lookup(roomID)
	if !ok {
		return MuteResult{}, domain.ErrRoomNotFound
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if actorID != rm.creatorID {
		return MuteResult{}, domain.ErrForbidden
	}

	p, ok := rm.participants[targetID]
	if !ok {
		return MuteResult{}, nil
	}

	p.AudioEnabled = !p.AudioEnabled
	verb := "muted"
	if p.AudioEnabled {
		verb = "unmuted"
	}
	sys := rm.appendSystem(fmt.Sprintf("%s has been %s", p.Name, verb))

	return MuteResult{
		Changed: true,
		Muted:   !p.AudioEnabled,
		Target:  rm.view(p),
		System:  &sys,
	}, nil
}

type MuteAllResult struct {
	Count  int
	System *domain.ChatMessage // nil, если никто не изменился
}

// MuteAll выключает звук всем, кроме администратора. Возвращает число
// реально изменённых участников; агрегатное сообщение — только если оно не ноль.
func (r *Registry) MuteAll(roomID, actorID string) (MuteAllResult, error) {
	rm, ok := r.lookup(roomID)
	if !ok {
		return MuteAllResult{}, domain.ErrRoomNotFound
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if actorID != rm.creatorID {
		return MuteAllResult{}, domain.ErrForbidden
	}

	var res MuteAllResult
	for _, id := range rm.order {
		p := rm.participants[id]
		if p.UserID == rm.creatorID || !p.AudioEnabled {
			continue
		}
		p.AudioEnabled = false
		res.Count++
	}
	if res.Count > 0 {
		sys := rm.appendSystem("All participants have been muted")
		res.System = &sys
	}

	return res, nil
}

type RemoveResult struct {
	RemovedName string
	RoomActive  bool
	System      *domain.ChatMessage
}

// RemoveParticipant исключает участника по решению администратора.
// Отсутствие цели — ошибка, в отличие от добровольного выхода.
func (r *Registry) RemoveParticipant(roomID, actorID, targetID string) (RemoveResult, error) {
	rm, ok := r.lookup(roomID)
	if !ok {
		return RemoveResult{}, domain.ErrRoomNotFound
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if actorID != rm.creatorID {
		return RemoveResult{}, domain.ErrForbidden
	}

	p, ok := rm.participants[targetID]
	if !ok {
		return RemoveResult{}, domain.ErrParticipantNotFound
	}

	name := p.Name
	rm.remove(targetID)
	sys := rm.appendSystem(fmt.Sprintf("%s has been removed from the meeting", name))
	if len(rm.participants) == 0 {
		rm.active = false
	}

	return RemoveResult{RemovedName: name, RoomActive: rm.active, System: &sys}, nil
}

type RemoveAllResult struct {
	Count  int
	System *domain.ChatMessage
}

// RemoveAll исключает всех, кроме администратора. Его собственное
// состояние потоков не трогается.
func (r *Registry) RemoveAll(roomID, actorID string) (RemoveAllResult, error) {
	rm, ok := r.lookup(roomID)
	if !ok {
		return RemoveAllResult{}, domain.ErrRoomNotFound
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if actorID != rm.creatorID {
		return RemoveAllResult{}, domain.ErrForbidden
	}

	var res RemoveAllResult
	for _, id := range append([]string(nil), rm.order...) {
		if id == rm.creatorID {
			continue
		}
		rm.remove(id)
		res.Count++
	}
	if res.Count > 0 {
		sys := rm.appendSystem("All participants have been removed")
		res.System = &sys
	}

	return res, nil
}

// UpdateStreamFlags — само-обслуживание: участник меняет свои флаги
// видео/звука. Без служебного сообщения, в отличие от действий администратора.
func (r *Registry) UpdateStreamFlags(roomID, userID string, video, audio bool) (domain.Participant, bool) {
	rm, ok := r.lookup(roomID)
	if !ok {
		return domain.Participant{}, false
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	p, ok := rm.participants[userID]
	if !ok {
		return domain.Participant{}, false
	}

	p.VideoEnabled = video
	p.AudioEnabled = audio
	return rm.view(p), true
}

// TouchHeartbeat обновляет last_seen участника. Best-effort.
func (r *Registry) TouchHeartbeat(roomID, userID string) {
	rm, ok := r.lookup(roomID)
	if !ok {
		return
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if p, ok := rm.participants[userID]; ok {
		p.LastSeen = time.Now()
	}
}

// --- внутреннее, под rm.mu ---

func (rm *room) insert(p *domain.Participant) {
	rm.participants[p.UserID] = p
	rm.order = append(rm.order, p.UserID)
}

func (rm *room) remove(userID string) {
	delete(rm.participants, userID)
	for i, id := range rm.order {
		if id == userID {
			rm.order = append(rm.order[:i], rm.order[i+1:]...)
			break
		}
	}
}

// view отдаёт копию записи; is_admin вычисляется здесь и нигде не хранится.
func (rm *room) view(p *domain.Participant) domain.Participant {
	out := *p
	out.IsAdmin = p.UserID == rm.creatorID
	return out
}

func (rm *room) roster() []domain.Participant {
	out := make([]domain.Participant, 0, len(rm.order))
	for _, id := range rm.order {
		out = append(out, rm.view(rm.participants[id]))
	}
	return out
}

func (rm *room) snapshotRoom() domain.Room {
	return domain.Room{
		ID:              rm.id,
		Name:            rm.name,
		CreatorID:       rm.creatorID,
		MaxParticipants: rm.maxParts,
		CreatedAt:       rm.createdAt,
		Active:          rm.active,
	}
}

func (rm *room) appendLog(authorID, authorName, text string, system bool) domain.ChatMessage {
	msg := domain.ChatMessage{
		ID:         uuid.NewString(),
		RoomID:     rm.id,
		AuthorID:   authorID,
		AuthorName: authorName,
		Text:       text,
		IsSystem:   system,
		CreatedAt:  time.Now(),
	}
	rm.log = append(rm.log, msg)
	if rm.histLimit > 0 && len(rm.log) > rm.histLimit {
		rm.log = rm.log[len(rm.log)-rm.histLimit:]
	}
	return msg
}

func (rm *room) appendSystem(text string) domain.ChatMessage {
	return rm.appendLog(domain.SystemAuthorID, "System", text, true)
}
