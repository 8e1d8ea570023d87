// Package worker provides a NATS worker that serves Morse encode, decode and
// user settings requests.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/morse-service/internal/audio"
	"github.com/book-expert/morse-service/internal/core"
	"github.com/book-expert/morse-service/internal/events"
	"github.com/book-expert/morse-service/internal/morse"
	"github.com/book-expert/morse-service/internal/userconfig"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	handleMessageTimeout = 30 * time.Second
	audioKeySuffix       = ".wav"
)

var (
	// ErrInvalidRequest indicates a request that could not be parsed or is missing data.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrSubjectEmpty indicates that a subscription subject was not configured.
	ErrSubjectEmpty = errors.New("subject cannot be empty")
	// ErrDuplicateSubject indicates that two requests were configured on the same subject.
	ErrDuplicateSubject = errors.New("subject configured more than once")
)

// Subjects lists the request subjects the worker subscribes to.
type Subjects struct {
	Encode     string
	Decode     string
	ConfigGet  string
	ConfigSet  string
	ConfigList string
	ConfigKeys string
}

// NatsWorker answers Morse requests on NATS subjects.
type NatsWorker struct {
	natsConnection *nats.Conn
	subjects       Subjects
	store          core.ObjectStore
	configs        core.UserConfigStore
	synth          *audio.Synthesizer
	log            *logger.Logger
}

type handlerFunc func(ctx context.Context, header events.Header, data []byte) (any, error)

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subjects Subjects,
	store core.ObjectStore,
	configs core.UserConfigStore,
	synth *audio.Synthesizer,
	log *logger.Logger,
) (*NatsWorker, error) {
	named := subjects.byName()
	seen := make(map[string]string, len(named))

	for _, name := range subjectNames {
		subject := named[name]
		if strings.TrimSpace(subject) == "" {
			return nil, fmt.Errorf("%w: %s", ErrSubjectEmpty, name)
		}

		if other, taken := seen[subject]; taken {
			return nil, fmt.Errorf("%w: %s and %s both use %q", ErrDuplicateSubject, other, name, subject)
		}

		seen[subject] = name
	}

	return &NatsWorker{
		natsConnection: natsConnection,
		subjects:       subjects,
		store:          store,
		configs:        configs,
		synth:          synth,
		log:            log,
	}, nil
}

// Run subscribes to every subject and serves requests until ctx is cancelled.
func (w *NatsWorker) Run(ctx context.Context) error {
	routes := map[string]handlerFunc{
		w.subjects.Encode:     w.handleEncode,
		w.subjects.Decode:     w.handleDecode,
		w.subjects.ConfigGet:  w.handleConfigGet,
		w.subjects.ConfigSet:  w.handleConfigSet,
		w.subjects.ConfigList: w.handleConfigList,
		w.subjects.ConfigKeys: w.handleConfigKeys,
	}

	subscriptions := make([]*nats.Subscription, 0, len(routes))

	for subject, handler := range routes {
		sub, err := w.natsConnection.Subscribe(subject, w.wrap(subject, handler))
		if err != nil {
			_ = drainAll(subscriptions)

			return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
		}

		subscriptions = append(subscriptions, sub)
	}

	w.log.Info("Listening on %d subjects", len(subscriptions))

	<-ctx.Done()

	drainErr := drainAll(subscriptions)
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscriptions: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) wrap(subject string, handler handlerFunc) nats.MsgHandler {
	return func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
		defer cancel()

		var envelope struct {
			Header events.Header `json:"header"`
		}

		var (
			reply any
			err   error
		)

		parseErr := json.Unmarshal(msg.Data, &envelope)
		if parseErr != nil {
			err = fmt.Errorf("%w: %w", ErrInvalidRequest, parseErr)
		} else {
			if envelope.Header.RequestID == "" {
				envelope.Header.RequestID = uuid.NewString()
			}

			reply, err = handler(ctx, envelope.Header, msg.Data)
		}

		if err != nil {
			w.log.Error("Request %s on %s failed: %v", envelope.Header.RequestID, subject, err)

			reply = &events.ErrorReply{
				Header: envelope.Header,
				Code:   errorCode(err),
				Error:  err.Error(),
			}
		}

		respondErr := w.respond(msg, reply)
		if respondErr != nil {
			w.log.Error("Failed to reply to request %s on %s: %v", envelope.Header.RequestID, subject, respondErr)
		}
	}
}

// handleEncode converts text to Morse, synthesizes it with the user's settings
// and uploads the WAV file.
func (w *NatsWorker) handleEncode(ctx context.Context, header events.Header, data []byte) (any, error) {
	var req events.EncodeRequest

	err := parseRequest(data, &req)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: text is empty", ErrInvalidRequest)
	}

	skipped := describe(morse.UnmappedCharacters(req.Text))
	for _, reason := range skipped {
		w.log.Warn("Request %s: skipping %s", header.RequestID, reason)
	}

	cfg, err := w.configs.Get(ctx, userconfig.UserID(header.UserID))
	if err != nil {
		return nil, err
	}

	wave, err := w.synth.Synthesize(req.Text, cfg)
	if err != nil {
		return nil, err
	}

	wavData, err := wave.WAVBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render audio: %w", err)
	}

	audioKey := uuid.NewString() + audioKeySuffix

	err = w.store.Upload(ctx, audioKey, wavData)
	if err != nil {
		return nil, fmt.Errorf("failed to upload audio data for key '%s': %w", audioKey, err)
	}

	return &events.EncodeReply{
		Header:     header,
		Morse:      morse.Encode(req.Text),
		AudioKey:   audioKey,
		DurationMs: wave.Duration().Milliseconds(),
		Skipped:    skipped,
	}, nil
}

func (w *NatsWorker) handleDecode(_ context.Context, header events.Header, data []byte) (any, error) {
	var req events.DecodeRequest

	err := parseRequest(data, &req)
	if err != nil {
		return nil, err
	}

	skipped := describe(morse.MalformedTokens(req.Morse))
	for _, reason := range skipped {
		w.log.Warn("Request %s: skipping %s", header.RequestID, reason)
	}

	return &events.DecodeReply{
		Header:  header,
		Text:    morse.Decode(req.Morse),
		Skipped: skipped,
	}, nil
}

func (w *NatsWorker) handleConfigGet(ctx context.Context, header events.Header, _ []byte) (any, error) {
	cfg, err := w.configs.Get(ctx, userconfig.UserID(header.UserID))
	if err != nil {
		return nil, err
	}

	return &events.ConfigReply{Header: header, Config: cfg}, nil
}

func (w *NatsWorker) handleConfigSet(ctx context.Context, header events.Header, data []byte) (any, error) {
	var req events.ConfigSetRequest

	err := parseRequest(data, &req)
	if err != nil {
		return nil, err
	}

	cfg, err := w.configs.Set(ctx, userconfig.UserID(header.UserID), req.Key, req.Value)
	if err != nil {
		return nil, err
	}

	return &events.ConfigReply{Header: header, Config: cfg}, nil
}

func (w *NatsWorker) handleConfigList(ctx context.Context, header events.Header, _ []byte) (any, error) {
	settings, err := w.configs.List(ctx, userconfig.UserID(header.UserID))
	if err != nil {
		return nil, err
	}

	return &events.ConfigListReply{Header: header, Settings: settings}, nil
}

func (w *NatsWorker) handleConfigKeys(_ context.Context, header events.Header, _ []byte) (any, error) {
	fields := userconfig.Fields()
	keys := make([]events.KeyField, 0, len(fields))

	for _, field := range fields {
		keys = append(keys, events.KeyField{
			Key:         field.Key,
			Label:       field.Label,
			Unit:        field.Unit,
			Description: field.Description,
		})
	}

	return &events.ConfigKeysReply{Header: header, Keys: keys}, nil
}

// respond marshals and sends the reply.
func (w *NatsWorker) respond(msg *nats.Msg, reply any) error {
	replyData, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply: %w", err)
	}

	return nil
}

var subjectNames = []string{"encode", "decode", "config get", "config set", "config list", "config keys"}

func (s Subjects) byName() map[string]string {
	return map[string]string{
		"encode":      s.Encode,
		"decode":      s.Decode,
		"config get":  s.ConfigGet,
		"config set":  s.ConfigSet,
		"config list": s.ConfigList,
		"config keys": s.ConfigKeys,
	}
}

func parseRequest(data []byte, target any) error {
	err := json.Unmarshal(data, target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	return nil
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, audio.ErrWaveformTooLong):
		return events.CodeInvalidRequest
	case errors.Is(err, userconfig.ErrInvalidConfigKey):
		return events.CodeInvalidKey
	case errors.Is(err, userconfig.ErrInvalidConfigValue):
		return events.CodeInvalidValue
	case errors.Is(err, userconfig.ErrPersistence):
		return events.CodePersistence
	default:
		return events.CodeInternal
	}
}

func describe(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}

	return out
}

func drainAll(subscriptions []*nats.Subscription) error {
	var errs []error

	for _, sub := range subscriptions {
		errs = append(errs, sub.Drain())
	}

	return errors.Join(errs...)
}
