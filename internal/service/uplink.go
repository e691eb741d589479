package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"soil_monitor/internal/downlink"
	"soil_monitor/internal/logger"
	"soil_monitor/internal/metrics"
	"soil_monitor/internal/models"
	"soil_monitor/internal/protocol"
	"soil_monitor/internal/publisher"
	"soil_monitor/internal/repository"

	"github.com/google/uuid"
)

// UplinkRequest is the part of a relay notification the receiver uses.
type UplinkRequest struct {
	DevEUI     string
	PayloadHex string
	Time       string // relay time, e.g. 2024-01-01T10:00:00.000000+02:00
}

// Outcome kinds.
const (
	OutcomeReadingSaved = "READING_SAVED"
	OutcomeTimeSent     = "TIME_SENT"
	OutcomeScheduleSent = "SCHEDULE_SENT"
	OutcomeAlarm        = "ALARM"
)

// Relay-facing messages, kept from the first deployment.
const (
	msgDataSent       = "Data Sent"
	msgNextStepsSent  = "Next Steps Sent"
	msgUnexpectedFlow = "Unexpected Flow"
	msgBatteryLow     = "Battery Low"
	msgReadingSaved   = "Datapoint DevEUI %s saved"
)

const frameSensor = "SENSOR"

// Outcome describes what an uplink caused.
type Outcome struct {
	Kind       string                `json:"kind"`
	Message    string                `json:"message"`
	Reading    *models.SensorReading `json:"reading,omitempty"`
	Alarm      *models.DeviceAlarm   `json:"alarm,omitempty"`
	Command    string                `json:"command,omitempty"`
	RelayReply string                `json:"relay_reply,omitempty"`
}

type UplinkService struct {
	readings  repository.ReadingRepo
	alarms    repository.AlarmRepo
	status    repository.StatusRepo
	registry  *protocol.Registry
	downlink  Dispatcher
	policy    protocol.SchedulePolicy
	publisher publisher.Publisher
	log       *logger.Logger
	now       func() time.Time
}

func NewUplinkService(repos *repository.Repository, deps Deps) *UplinkService {
	deps = deps.withDefaults()
	return &UplinkService{
		readings:  repos.Readings,
		alarms:    repos.Alarms,
		status:    repos.Status,
		registry:  deps.Registry,
		downlink:  deps.Downlink,
		policy:    deps.Policy,
		publisher: deps.Publisher,
		log:       deps.Log,
		now:       deps.Now,
	}
}

// Handle decodes the uplink and performs what it asks for: store a reading,
// record an alarm, or answer with a downlink command.
//
// Decode failures are returned as the protocol error types. A failed downlink
// is returned as *downlink.TransportError together with the Outcome holding
// the command that was attempted.
func (s *UplinkService) Handle(ctx context.Context, req UplinkRequest) (Outcome, error) {
	devEUI := protocol.NormalizeEUI(req.DevEUI)

	ts, err := protocol.ParseRelayTime(req.Time)
	if err != nil {
		return Outcome{}, s.reject(devEUI, err)
	}
	payload, err := protocol.DecodeHexPayload(req.PayloadHex)
	if err != nil {
		return Outcome{}, s.reject(devEUI, err)
	}
	frame, err := protocol.Decode(devEUI, payload, s.registry)
	if err != nil {
		return Outcome{}, s.reject(devEUI, err)
	}

	switch f := frame.(type) {
	case protocol.SensorFrame:
		return s.storeReading(ctx, f, req.Time, ts)
	case protocol.ControlSignal:
		return s.handleControl(ctx, f, req.Time)
	default:
		return Outcome{}, fmt.Errorf("unhandled frame %T", frame)
	}
}

func (s *UplinkService) storeReading(ctx context.Context, f protocol.SensorFrame, relayTime string, ts time.Time) (Outcome, error) {
	rd := f.Reading(relayTime, ts)
	rd.ID = uuid.NewString()

	if err := s.readings.Save(ctx, rd); err != nil {
		return Outcome{}, fmt.Errorf("save reading: %w", err)
	}
	metrics.UplinkCounter.WithLabelValues(frameSensor).Inc()
	metrics.InsertCounter.Inc()
	s.infow("uplink_reading_saved",
		"dev_eui", rd.DevEUI,
		"temperature_c", rd.Temperature,
		"illuminance", rd.Illuminance,
		"humidity", rd.Humidity,
		"counter", rd.Counter,
		"debit_l", rd.Debit,
		"voltage_mv", rd.Voltage,
	)

	s.touch(ctx, rd.DevEUI, frameSensor, nil)
	if err := s.publisher.PublishReading(ctx, rd); err != nil {
		s.errorw("publish_reading_failed", "dev_eui", rd.DevEUI, "err", err)
	}

	return Outcome{
		Kind:    OutcomeReadingSaved,
		Message: fmt.Sprintf(msgReadingSaved, rd.DevEUI),
		Reading: &rd,
	}, nil
}

func (s *UplinkService) handleControl(ctx context.Context, sig protocol.ControlSignal, relayTime string) (Outcome, error) {
	metrics.UplinkCounter.WithLabelValues(sig.Action.String()).Inc()
	now := s.now()

	switch sig.Action {
	case protocol.ActionTimeSync:
		s.touch(ctx, sig.DevEUI, sig.Action.String(), nil)
		out := Outcome{Kind: OutcomeTimeSent, Message: msgDataSent, Command: protocol.EncodeTimeSync(now)}
		return s.send(ctx, sig.DevEUI, out)

	case protocol.ActionScheduleRequest:
		s.touch(ctx, sig.DevEUI, sig.Action.String(), nil)
		next, nextNext := s.policy.Next(now)
		out := Outcome{Kind: OutcomeScheduleSent, Message: msgNextStepsSent, Command: protocol.EncodeSchedule(next, nextNext)}
		s.infow("schedule_computed", "dev_eui", sig.DevEUI,
			"next_at", next.At, "next_duration", next.Duration, "next_water", next.Water,
			"next_next_at", nextNext.At, "next_next_duration", nextNext.Duration, "next_next_water", nextNext.Water,
		)
		return s.send(ctx, sig.DevEUI, out)

	case protocol.ActionUnexpectedFlow, protocol.ActionBatteryLow:
		return s.raiseAlarm(ctx, sig, relayTime, now)

	default:
		return Outcome{}, &protocol.UnknownControlByteError{Byte: byte(sig.Action)}
	}
}

func (s *UplinkService) raiseAlarm(ctx context.Context, sig protocol.ControlSignal, relayTime string, now time.Time) (Outcome, error) {
	alarm := models.DeviceAlarm{
		AlarmID:     uuid.NewString(),
		DevEUI:      sig.DevEUI,
		OccurredAt:  now.UTC(),
		Type:        sig.Action.String(),
		Description: msgUnexpectedFlow,
		Metadata:    map[string]any{"relay_time": relayTime},
	}
	if sig.Action == protocol.ActionBatteryLow {
		alarm.Description = msgBatteryLow
	}

	if s.log != nil {
		s.log.Warnw("device_alarm", "dev_eui", alarm.DevEUI, "type", alarm.Type)
	}
	metrics.AlarmCounter.WithLabelValues(alarm.Type).Inc()

	if err := s.alarms.Append(ctx, alarm); err != nil {
		return Outcome{}, fmt.Errorf("record alarm: %w", err)
	}
	s.touch(ctx, alarm.DevEUI, alarm.Type, func(st *models.DeviceStatus) {
		switch sig.Action {
		case protocol.ActionBatteryLow:
			st.BatteryLow = true
		case protocol.ActionUnexpectedFlow:
			st.UnexpectedFlow = true
		}
	})
	if err := s.publisher.PublishAlarm(ctx, alarm); err != nil {
		s.errorw("publish_alarm_failed", "dev_eui", alarm.DevEUI, "err", err)
	}

	return Outcome{Kind: OutcomeAlarm, Message: alarm.Description, Alarm: &alarm}, nil
}

func (s *UplinkService) send(ctx context.Context, devEUI string, out Outcome) (Outcome, error) {
	if s.downlink == nil {
		metrics.DownlinkCounter.WithLabelValues("failed").Inc()
		return out, &downlink.TransportError{DevEUI: devEUI, Err: errors.New("no downlink transport configured")}
	}
	reply, err := s.downlink.Send(ctx, devEUI, out.Command)
	if err != nil {
		metrics.DownlinkCounter.WithLabelValues("failed").Inc()
		s.errorw("downlink_failed", "dev_eui", devEUI, "command", out.Command, "err", err)
		var te *downlink.TransportError
		if !errors.As(err, &te) {
			err = &downlink.TransportError{DevEUI: devEUI, Err: err}
		}
		return out, err
	}
	metrics.DownlinkCounter.WithLabelValues("sent").Inc()
	s.infow("downlink_sent", "dev_eui", devEUI, "command", out.Command)
	out.RelayReply = reply
	return out, nil
}

// touch records that a registered device was heard from. Failures are logged
// only; the uplink itself already succeeded.
func (s *UplinkService) touch(ctx context.Context, devEUI, frame string, mutate func(*models.DeviceStatus)) {
	if s.status == nil || !s.registry.Contains(devEUI) {
		return
	}
	st, err := s.status.Load(ctx, devEUI)
	if err != nil {
		s.errorw("status_load_failed", "dev_eui", devEUI, "err", err)
		return
	}
	st.DevEUI = devEUI
	st.LastSeen = s.now().UTC()
	st.LastFrame = frame
	if mutate != nil {
		mutate(&st)
	}
	if err := s.status.Save(ctx, st); err != nil {
		s.errorw("status_save_failed", "dev_eui", devEUI, "err", err)
	}
}

func (s *UplinkService) reject(devEUI string, err error) error {
	reason := "unknown"
	var (
		malformed    *protocol.MalformedFrameError
		unrecognized *protocol.UnrecognizedDeviceError
		unknownByte  *protocol.UnknownControlByteError
		badTime      *protocol.TimeParseError
	)
	switch {
	case errors.As(err, &malformed):
		reason = "malformed_frame"
	case errors.As(err, &unrecognized):
		reason = "unrecognized_device"
	case errors.As(err, &unknownByte):
		reason = "unknown_control_byte"
	case errors.As(err, &badTime):
		reason = "bad_time"
	}
	metrics.DecodeErrorCounter.WithLabelValues(reason).Inc()
	if s.log != nil {
		s.log.Infow("uplink_rejected", "dev_eui", devEUI, "reason", reason, "err", err)
	}
	return err
}

func (s *UplinkService) infow(msg string, kv ...interface{}) {
	if s.log != nil {
		s.log.Infow(msg, kv...)
	}
}

func (s *UplinkService) errorw(msg string, kv ...interface{}) {
	if s.log != nil {
		s.log.Errorw(msg, kv...)
	}
}
