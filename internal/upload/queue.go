// Пакет upload — очередь загрузки пакета файлов: валидация на входе,
// ограниченная конкурентность, прогресс по каждому файлу, ретрай и
// удаление. Один параметризуемый механизм для фото и GPX вместо
// дублирования логики по экранам.
package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/velotrail/velotrail/pkg/metrics"
)

// Status — состояние элемента очереди.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
)

const (
	DefaultConcurrency = 3
	DefaultMaxFiles    = 20
	DefaultMaxBytes    = 10 << 20 // 10 MiB

	// genericErrorMessage — запасное сообщение, если ошибка загрузки
	// не несёт собственного текста.
	genericErrorMessage = "upload failed"
)

var (
	ErrNotFound   = errors.New("upload: item not found")
	ErrUploading  = errors.New("upload: item is uploading")
	ErrNotErrored = errors.New("upload: item is not in error state")
	ErrBadIndex   = errors.New("upload: index out of range")
)

// File — входной файл пакета. Release (если задан) освобождает локальный
// ресурс (спул-файл, буфер) и вызывается ровно один раз при удалении
// элемента из очереди.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
	Release     func()
}

// UploadFunc — контракт загрузки одного файла: обязан сообщать прогресс
// 0..100 монотонно и вернуть долговременный идентификатор либо ошибку
// с человекочитаемым текстом.
type UploadFunc func(ctx context.Context, f *File, onProgress func(percent int)) (serverID string, err error)

// DeleteFunc — удаление уже загруженного файла; ошибка отменяет
// локальное удаление.
type DeleteFunc func(ctx context.Context, serverID string) error

// ReorderFunc — сохранение нового порядка; ошибка откатывает локальную
// перестановку.
type ReorderFunc func(ctx context.Context, orderedServerIDs []string) error

// Limits — конфигурация очереди. Наблюдаемые на разных экранах различия
// (6 или 20 файлов, 5 или 10 МБ) — это конфигурация, не отдельный код.
type Limits struct {
	MaxFiles     int
	MaxBytes     int64
	AllowedTypes []string
	Concurrency  int64
}

func (l *Limits) applyDefaults() {
	if l.MaxFiles <= 0 {
		l.MaxFiles = DefaultMaxFiles
	}
	if l.MaxBytes <= 0 {
		l.MaxBytes = DefaultMaxBytes
	}
	if l.Concurrency <= 0 {
		l.Concurrency = DefaultConcurrency
	}
}

func (l *Limits) typeAllowed(contentType string) bool {
	if len(l.AllowedTypes) == 0 {
		return true
	}
	for _, t := range l.AllowedTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

// Rejection — файл, не прошедший валидацию (до какой-либо сети).
type Rejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ItemView — снимок элемента для транспортного слоя.
type ItemView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ContentType  string `json:"content_type"`
	Size         int64  `json:"size"`
	Progress     int    `json:"progress"`
	Status       Status `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	ServerID     string `json:"server_id,omitempty"`
}

// BatchResult — итог обработки пакета.
type BatchResult struct {
	Items    []ItemView  `json:"items"`
	Rejected []Rejection `json:"rejected"`
}

type item struct {
	id           string
	file         *File
	progress     int
	status       Status
	errorMessage string
	serverID     string
	released     bool
}

// Queue — очередь загрузки. Владеет списком элементов на время сеанса
// редактирования; долговременная ссылка на загруженный файл — serverID.
type Queue struct {
	mu    sync.Mutex
	items []*item

	limits    Limits
	upload    UploadFunc
	deleteFn  DeleteFunc
	reorderFn ReorderFunc
	sem       *semaphore.Weighted
}

// Option — необязательные коллабораторы очереди.
type Option func(*Queue)

func WithDelete(fn DeleteFunc) Option  { return func(q *Queue) { q.deleteFn = fn } }
func WithReorder(fn ReorderFunc) Option { return func(q *Queue) { q.reorderFn = fn } }

// NewQueue — конструктор. uploadFn обязателен.
func NewQueue(limits Limits, uploadFn UploadFunc, opts ...Option) *Queue {
	limits.applyDefaults()
	q := &Queue{
		limits: limits,
		upload: uploadFn,
		sem:    semaphore.NewWeighted(limits.Concurrency),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Accept — валидирует пакет и ставит принятые файлы в очередь (pending).
// Порядок проверок: лимит количества, затем тип, затем размер.
// Отклонённый файл не породит ни одного сетевого вызова.
func (q *Queue) Accept(files []*File) (accepted []ItemView, rejected []Rejection) {
	q.mu.Lock()
	defer q.mu.Unlock()

	slots := q.limits.MaxFiles - len(q.items)
	for _, f := range files {
		switch {
		case slots <= 0:
			rejected = append(rejected, Rejection{Name: f.Name, Reason: fmt.Sprintf("file limit reached (%d)", q.limits.MaxFiles)})
			metrics.UploadItems.WithLabelValues("rejected").Inc()
		case !q.limits.typeAllowed(f.ContentType):
			rejected = append(rejected, Rejection{Name: f.Name, Reason: fmt.Sprintf("unsupported type %q", f.ContentType)})
			metrics.UploadItems.WithLabelValues("rejected").Inc()
		case f.Size > q.limits.MaxBytes:
			rejected = append(rejected, Rejection{Name: f.Name, Reason: fmt.Sprintf("file too large (max %d bytes)", q.limits.MaxBytes)})
			metrics.UploadItems.WithLabelValues("rejected").Inc()
		default:
			it := &item{
				id:     uuid.New().String(),
				file:   f,
				status: StatusPending,
			}
			q.items = append(q.items, it)
			accepted = append(accepted, it.view())
			slots--
			metrics.UploadItems.WithLabelValues("accepted").Inc()
		}
	}
	return accepted, rejected
}

// Process — загружает все pending-элементы. Одновременно в состоянии
// uploading находится не более Concurrency элементов (взвешенный
// семафор — допуск без барьера по чанкам, с отменой через контекст).
// Ошибка одного файла не отменяет остальные.
func (q *Queue) Process(ctx context.Context) error {
	pending := q.pendingItems()

	var wg sync.WaitGroup
	for _, it := range pending {
		if err := q.sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return err
		}
		wg.Add(1)
		go func(it *item) {
			defer wg.Done()
			defer q.sem.Release(1)
			q.uploadOne(ctx, it)
		}(it)
	}
	wg.Wait()
	return nil
}

// Retry — возвращает один ошибочный элемент в pending и прогоняет его
// через тот же ограниченный семафором путь. Остальные элементы не трогает.
func (q *Queue) Retry(ctx context.Context, id string) error {
	q.mu.Lock()
	it := q.find(id)
	if it == nil {
		q.mu.Unlock()
		return ErrNotFound
	}
	if it.status != StatusError {
		q.mu.Unlock()
		return ErrNotErrored
	}
	it.status = StatusPending
	it.progress = 0
	it.errorMessage = ""
	q.mu.Unlock()

	metrics.UploadItems.WithLabelValues("retried").Inc()

	if err := q.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer q.sem.Release(1)
	q.uploadOne(ctx, it)
	return nil
}

// Remove — удаляет элемент. Во время загрузки удаление запрещено.
// Для уже загруженного файла сначала удаление на сервере; при ошибке
// элемент остаётся. Release вызывается ровно один раз.
func (q *Queue) Remove(ctx context.Context, id string) error {
	q.mu.Lock()
	it := q.find(id)
	if it == nil {
		q.mu.Unlock()
		return ErrNotFound
	}
	if it.status == StatusUploading {
		q.mu.Unlock()
		return ErrUploading
	}
	serverID := it.serverID
	q.mu.Unlock()

	if serverID != "" && q.deleteFn != nil {
		if err := q.deleteFn(ctx, serverID); err != nil {
			return fmt.Errorf("delete uploaded file: %w", err)
		}
	}

	var release func()
	q.mu.Lock()
	for i, cur := range q.items {
		if cur.id != id {
			continue
		}
		if cur.file != nil && cur.file.Release != nil && !cur.released {
			cur.released = true
			release = cur.file.Release
		}
		q.items = append(q.items[:i], q.items[i+1:]...)
		break
	}
	q.mu.Unlock()

	if release != nil {
		release()
	}
	metrics.UploadItems.WithLabelValues("removed").Inc()
	return nil
}

// Reorder — переставляет элемент с позиции from на позицию to,
// оптимистично обновляя локальный порядок; при ошибке сохранения
// порядок откатывается.
func (q *Queue) Reorder(ctx context.Context, from, to int) error {
	q.mu.Lock()
	if from < 0 || from >= len(q.items) || to < 0 || to >= len(q.items) {
		q.mu.Unlock()
		return ErrBadIndex
	}

	prev := append([]*item(nil), q.items...)

	moved := q.items[from]
	q.items = append(q.items[:from], q.items[from+1:]...)
	q.items = append(q.items[:to], append([]*item{moved}, q.items[to:]...)...)

	ids := make([]string, 0, len(q.items))
	for _, it := range q.items {
		if it.serverID != "" {
			ids = append(ids, it.serverID)
		}
	}
	q.mu.Unlock()

	if q.reorderFn == nil {
		return nil
	}
	if err := q.reorderFn(ctx, ids); err != nil {
		q.mu.Lock()
		q.items = prev
		q.mu.Unlock()
		return fmt.Errorf("persist order: %w", err)
	}
	return nil
}

// Snapshot — копия состояния очереди в текущем порядке.
func (q *Queue) Snapshot() []ItemView {
	q.mu.Lock()
	defer q.mu.Unlock()

	views := make([]ItemView, 0, len(q.items))
	for _, it := range q.items {
		views = append(views, it.view())
	}
	return views
}

// Len — текущее количество элементов.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// ------вспомогательные функции------

// uploadOne — загрузка одного элемента: pending → uploading → success|error.
func (q *Queue) uploadOne(ctx context.Context, it *item) {
	if !q.claim(it) {
		return
	}

	serverID, err := q.upload(ctx, it.file, func(percent int) {
		q.setProgress(it, percent)
	})

	q.mu.Lock()
	defer q.mu.Unlock()

	if err != nil {
		it.status = StatusError
		it.errorMessage = errorMessage(err)
		metrics.UploadItems.WithLabelValues("error").Inc()
		return
	}
	it.status = StatusSuccess
	it.progress = 100
	it.serverID = serverID
	metrics.UploadItems.WithLabelValues("success").Inc()
	if it.file != nil {
		metrics.UploadBytes.Add(float64(it.file.Size))
	}
}

// claim — переводит pending в uploading; false, если элемент уже занят.
func (q *Queue) claim(it *item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if it.status != StatusPending {
		return false
	}
	it.status = StatusUploading
	it.progress = 0
	return true
}

// setProgress — прогресс не убывает, пока элемент в состоянии uploading.
func (q *Queue) setProgress(it *item, percent int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if it.status != StatusUploading {
		return
	}
	if percent > 100 {
		percent = 100
	}
	if percent > it.progress {
		it.progress = percent
	}
}

// pendingItems — снимок pending-элементов в порядке очереди.
func (q *Queue) pendingItems() []*item {
	q.mu.Lock()
	defer q.mu.Unlock()
	var pending []*item
	for _, it := range q.items {
		if it.status == StatusPending {
			pending = append(pending, it)
		}
	}
	return pending
}

// find — элемент по id; вызывается под мьютексом.
func (q *Queue) find(id string) *item {
	for _, it := range q.items {
		if it.id == id {
			return it
		}
	}
	return nil
}

func (it *item) view() ItemView {
	v := ItemView{
		ID:           it.id,
		Progress:     it.progress,
		Status:       it.status,
		ErrorMessage: it.errorMessage,
		ServerID:     it.serverID,
	}
	if it.file != nil {
		v.Name = it.file.Name
		v.ContentType = it.file.ContentType
		v.Size = it.file.Size
	}
	return v
}

func errorMessage(err error) string {
	if err == nil || err.Error() == "" {
		return genericErrorMessage
	}
	return err.Error()
}
