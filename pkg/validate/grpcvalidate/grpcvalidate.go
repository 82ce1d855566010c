// Package grpcvalidate содержит серверные перехватчики gRPC, которые проверяют
// входящие запросы сгенерированными проверками protoval.
//
// Сообщения без сгенерированного кода проверяются через protovalidate
// (аннотации buf.validate). Нарушения возвращаются клиенту как
// codes.InvalidArgument с деталями errdetails.BadRequest.
package grpcvalidate

import (
	"context"
	"errors"
	"strconv"
	"strings"

	pvpb "buf.build/gen/go/bufbuild/protovalidate/protocolbuffers/go/buf/validate"
	"buf.build/go/protovalidate"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	"github.com/protoval/protoval/pkg/validate"
)

// Interceptor проверяет запросы унарных и потоковых методов
type Interceptor struct {
	fallback protovalidate.Validator
	log      *zap.Logger
}

// Option настройка Interceptor
type Option func(*Interceptor)

// WithLogger задает логгер отклоненных запросов
func WithLogger(log *zap.Logger) Option {
	return func(i *Interceptor) { i.log = log }
}

// WithFallback задает валидатор для сообщений без сгенерированного кода.
// nil отключает такую проверку.
func WithFallback(v protovalidate.Validator) Option {
	return func(i *Interceptor) { i.fallback = v }
}

// New создает Interceptor. По умолчанию сообщения без сгенерированного кода
// проверяются через protovalidate.New().
func New(opts ...Option) (*Interceptor, error) {
	fallback, err := protovalidate.New()
	if err != nil {
		return nil, err
	}
	i := &Interceptor{fallback: fallback, log: zap.NewNop()}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Check проверяет сообщение и возвращает ошибку статуса InvalidArgument
func (i *Interceptor) Check(req any) error {
	var err error
	switch msg := req.(type) {
	case validate.Validatable:
		err = validate.Check(msg.ValidateAt(nil, ""))
	case proto.Message:
		if i.fallback != nil {
			err = i.fallback.Validate(msg)
		}
	}
	if err == nil {
		return nil
	}
	return toStatus(err)
}

// Unary возвращает унарный перехватчик
func (i *Interceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if err := i.Check(req); err != nil {
			i.log.Debug("request rejected",
				zap.String("method", info.FullMethod),
				zap.Error(err),
			)
			return nil, err
		}
		return handler(ctx, req)
	}
}

// Stream возвращает потоковый перехватчик, проверяющий каждое входящее сообщение
func (i *Interceptor) Stream() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		return handler(srv, &validatingStream{ServerStream: ss, i: i, method: info.FullMethod})
	}
}

// validatingStream оборачивает grpc.ServerStream и проверяет принятые сообщения
type validatingStream struct {
	grpc.ServerStream
	i      *Interceptor
	method string
}

func (s *validatingStream) RecvMsg(m interface{}) error {
	if err := s.ServerStream.RecvMsg(m); err != nil {
		return err
	}
	if err := s.i.Check(m); err != nil {
		s.i.log.Debug("stream message rejected",
			zap.String("method", s.method),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// toStatus переводит ошибку валидации в статус с деталями BadRequest
func toStatus(err error) error {
	var fields []*errdetails.BadRequest_FieldViolation
	var own *validate.ValidationError
	var pv *protovalidate.ValidationError
	switch {
	case errors.As(err, &own):
		pv = own.ToProtovalidate()
	case errors.As(err, &pv):
	default:
		return status.Errorf(codes.InvalidArgument, "validation failed: %v", err)
	}
	for _, v := range pv.Violations {
		fields = append(fields, &errdetails.BadRequest_FieldViolation{
			Field:       fieldPathString(v.Proto.GetField()),
			Description: v.Proto.GetMessage(),
		})
	}
	st := status.New(codes.InvalidArgument, err.Error())
	if detailed, derr := st.WithDetails(&errdetails.BadRequest{FieldViolations: fields}); derr == nil {
		st = detailed
	}
	return st.Err()
}

func fieldPathString(p *pvpb.FieldPath) string {
	var sb strings.Builder
	for i, el := range p.GetElements() {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(el.GetFieldName())
		switch sub := el.GetSubscript().(type) {
		case *pvpb.FieldPathElement_Index:
			sb.WriteString("[" + strconv.FormatUint(sub.Index, 10) + "]")
		case *pvpb.FieldPathElement_StringKey:
			sb.WriteString("[" + sub.StringKey + "]")
		}
	}
	return sb.String()
}
