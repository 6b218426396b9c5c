// Package render turns a template and a render context into a PDF document or
// a ZPL label, optionally delivering the label to a network printer.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/geocoder89/eventprint/internal/domain/template"
	"github.com/geocoder89/eventprint/internal/printer"
	"github.com/geocoder89/eventprint/internal/render/assets"
	"github.com/geocoder89/eventprint/internal/render/layout"
	"github.com/geocoder89/eventprint/internal/render/pdf"
	"github.com/geocoder89/eventprint/internal/render/placeholder"
	"github.com/geocoder89/eventprint/internal/render/units"
	"github.com/geocoder89/eventprint/internal/render/zpl"
)

type Kind string

const (
	KindDocument       Kind = "document"
	KindPrinterCommand Kind = "printer_command"
)

func (k Kind) IsValid() bool {
	return k == KindDocument || k == KindPrinterCommand
}

const (
	ContentTypePDF = "application/pdf"
	ContentTypeZPL = "application/vnd.zebra.zpl"

	previewBytes = 256
)

type PrinterTarget struct {
	IP   string `json:"ip" binding:"required,ip"`
	Port int    `json:"port,omitempty" binding:"omitempty,min=1,max=65535"`
}

func (p PrinterTarget) Addr() string {
	return printer.Addr(p.IP, p.Port)
}

type Request struct {
	Template template.Template
	Context  placeholder.Context
	Kind     Kind
	// Printer asks the engine to deliver a printer_command render itself.
	Printer *PrinterTarget
}

type Delivery struct {
	Addr    string `json:"addr"`
	Sent    bool   `json:"sent"`
	Preview string `json:"preview"`
}

type Result struct {
	Kind        Kind          `json:"kind"`
	ContentType string        `json:"contentType"`
	Bytes       []byte        `json:"-"`
	Skipped     []layout.Skip `json:"skipped,omitempty"`
	Delivery    *Delivery     `json:"delivery,omitempty"`
}

// AssetFetcher loads every referenced image before drawing starts.
type AssetFetcher interface {
	Prefetch(ctx context.Context, refs []string) assets.Set
}

type Metrics interface {
	ObserveRender(kind, result string, d time.Duration)
	ObserveSkip(kind, elementType string)
	ObservePrint(result string, d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ObserveRender(string, string, time.Duration) {}
func (nopMetrics) ObserveSkip(string, string)                  {}
func (nopMetrics) ObservePrint(string, time.Duration)          {}

type Engine struct {
	resolver *placeholder.Resolver
	fetcher  AssetFetcher
	document *pdf.Renderer
	label    *zpl.Renderer
	sender   printer.Sender
	metrics  Metrics
	log      *slog.Logger
	tracer   trace.Tracer
}

type Deps struct {
	Resolver *placeholder.Resolver
	Fetcher  AssetFetcher
	Document *pdf.Renderer
	Label    *zpl.Renderer
	Sender   printer.Sender
	Metrics  Metrics
	Log      *slog.Logger
}

func NewEngine(d Deps) *Engine {
	e := &Engine{
		resolver: d.Resolver,
		fetcher:  d.Fetcher,
		document: d.Document,
		label:    d.Label,
		sender:   d.Sender,
		metrics:  d.Metrics,
		log:      d.Log,
		tracer:   otel.Tracer("github.com/geocoder89/eventprint/internal/render"),
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.resolver == nil {
		e.resolver = placeholder.New()
	}
	if e.document == nil {
		e.document = pdf.NewRenderer(pdf.WithLogger(e.log), pdf.WithClock(e.resolver.Now))
	}
	if e.label == nil {
		e.label = zpl.NewRenderer(e.log)
	}
	if e.sender == nil {
		e.sender = printer.NewTransport(printer.DefaultTimeout)
	}
	if e.metrics == nil {
		e.metrics = nopMetrics{}
	}
	return e
}

// Render builds the requested output. Input problems are reported as *Error
// before any drawing. When a printer is given and delivery fails, the built
// Result is returned together with the transport error so the caller can
// resend without rendering again.
func (e *Engine) Render(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	ctx, span := e.tracer.Start(ctx, "render.Render", trace.WithAttributes(
		attribute.String("render.kind", string(req.Kind)),
		attribute.String("template.id", req.Template.ID),
		attribute.Int("template.elements", len(req.Template.Elements)),
	))
	defer span.End()

	res, err := e.build(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.metrics.ObserveRender(string(req.Kind), resultLabel(err), time.Since(start))
		return Result{}, err
	}
	e.metrics.ObserveRender(string(req.Kind), "ok", time.Since(start))
	span.SetAttributes(attribute.Int("render.skipped", len(res.Skipped)))

	if req.Printer == nil {
		return res, nil
	}

	delivery, err := e.Send(ctx, req.Printer.Addr(), res.Bytes)
	res.Delivery = &delivery
	if err != nil {
		span.RecordError(err)
		return res, err
	}
	return res, nil
}

func (e *Engine) build(ctx context.Context, req Request) (Result, error) {
	if err := e.check(req); err != nil {
		return Result{}, err
	}

	switch req.Kind {
	case KindDocument:
		return e.buildDocument(ctx, req)
	default:
		return e.buildLabel(ctx, req)
	}
}

func (e *Engine) check(req Request) error {
	if !req.Kind.IsValid() {
		return invalid(fmt.Sprintf("unknown output kind %q", req.Kind), nil)
	}
	if req.Printer != nil && req.Kind != KindPrinterCommand {
		return invalid("a printer can only receive printer_command output", nil)
	}
	if req.Printer != nil && req.Printer.IP == "" {
		return invalid("printer ip is required", nil)
	}
	if v := req.Context.Version; v != 0 && v != placeholder.ContextVersion {
		return invalid(fmt.Sprintf("unsupported context version %d", v), nil)
	}
	if err := template.Validate(&req.Template); err != nil {
		return invalid("invalid template", err)
	}
	return nil
}

func (e *Engine) buildDocument(ctx context.Context, req Request) (Result, error) {
	t := req.Template
	tg := layout.DocumentTarget(t)
	prepared := layout.Prepare(t, tg, req.Context, e.resolver)
	e.noteSkips(ctx, req.Kind, prepared.Skipped)

	set := assets.NewSet()
	if refs := t.ImageRefs(); len(refs) > 0 && e.fetcher != nil {
		set = e.fetcher.Prefetch(ctx, refs)
	}

	out, skipped, err := e.document.Render(ctx, pdf.Page{
		Size:       tg.Native,
		Background: pdf.Background{Color: t.BackgroundColor, Ref: t.BackgroundImage},
		Items:      prepared.Items,
	}, set)
	if err != nil {
		return Result{}, failed("draw document", err)
	}
	e.countSkips(req.Kind, skipped)

	return Result{
		Kind:        KindDocument,
		ContentType: ContentTypePDF,
		Bytes:       out,
		Skipped:     append(prepared.Skipped, skipped...),
	}, nil
}

func (e *Engine) buildLabel(ctx context.Context, req Request) (Result, error) {
	t := req.Template
	tg := layout.PrinterTarget(t)
	prepared := layout.Prepare(t, tg, req.Context, e.resolver)
	e.noteSkips(ctx, req.Kind, prepared.Skipped)

	out, skipped, err := e.label.Render(ctx, zpl.Label{
		Size:     tg.Native,
		Rotation: units.NormalizeRotation(t.Rotation),
		Items:    prepared.Items,
	})
	if err != nil {
		return Result{}, failed("encode label", err)
	}
	e.countSkips(req.Kind, skipped)

	return Result{
		Kind:        KindPrinterCommand,
		ContentType: ContentTypeZPL,
		Bytes:       out,
		Skipped:     append(prepared.Skipped, skipped...),
	}, nil
}

// noteSkips reports elements rejected before drawing. Renderers log their own.
func (e *Engine) noteSkips(ctx context.Context, kind Kind, skipped []layout.Skip) {
	for _, s := range skipped {
		e.log.WarnContext(ctx, "element skipped",
			"element_index", s.Index,
			"element_type", s.Type,
			"reason", s.Reason,
		)
	}
	e.countSkips(kind, skipped)
}

func (e *Engine) countSkips(kind Kind, skipped []layout.Skip) {
	for _, s := range skipped {
		e.metrics.ObserveSkip(string(kind), string(s.Type))
	}
}

// Send delivers an already built command stream.
func (e *Engine) Send(ctx context.Context, addr string, data []byte) (Delivery, error) {
	start := time.Now()
	d := Delivery{Addr: addr, Preview: Preview(data, previewBytes)}

	ctx, span := e.tracer.Start(ctx, "printer.Send", trace.WithAttributes(
		attribute.String("printer.addr", addr),
		attribute.Int("printer.bytes", len(data)),
	))
	defer span.End()

	err := e.sender.Send(ctx, addr, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.metrics.ObservePrint(printResult(err), time.Since(start))
		e.log.ErrorContext(ctx, "printer send failed", "addr", addr, "bytes", len(data), "err", err)
		return d, err
	}

	e.metrics.ObservePrint("ok", time.Since(start))
	e.log.InfoContext(ctx, "label sent", "addr", addr, "bytes", len(data))
	d.Sent = true
	return d, nil
}

// Preview returns at most n bytes of data as text for diagnostics. The cut
// backs off to a rune boundary so UTF-8 labels stay readable.
func Preview(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(data[cut]) {
		cut--
	}
	return string(data[:cut]) + "..."
}

func resultLabel(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return string(re.Code)
	}
	return "error"
}

func printResult(err error) string {
	switch {
	case errors.Is(err, printer.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, printer.ErrTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unreachable"
	}
}
