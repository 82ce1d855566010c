package grpcvalidate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/protoval/protoval/pkg/validate"
)

// checked сообщение со "сгенерированной" проверкой: значение не должно быть пустым
type checked struct {
	*wrapperspb.StringValue
}

func (c checked) ValidateAt(parent validate.FieldPath, parentType string) []*validate.Violation {
	acc := validate.NewAccumulator(parent, parentType, "test.Checked")
	if c.GetValue() == "" {
		acc.Report(acc.Path("value"), c.GetValue(), "${field.path} must be set", map[string]string{"field.path": "value"})
	}
	return acc.Violations()
}

func TestInterceptor_Unary(t *testing.T) {
	i, err := New()
	require.NoError(t, err)
	unary := i.Unary()
	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Do"}

	tests := []struct {
		name     string
		req      interface{}
		wantCode codes.Code
	}{
		{name: "valid generated", req: checked{wrapperspb.String("x")}, wantCode: codes.OK},
		{name: "invalid generated", req: checked{&wrapperspb.StringValue{}}, wantCode: codes.InvalidArgument},
		{name: "plain proto without rules", req: wrapperspb.Int32(1), wantCode: codes.OK},
		{name: "not a proto message", req: "raw", wantCode: codes.OK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			_, err := unary(context.Background(), tt.req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				called = true
				return req, nil
			})
			assert.Equal(t, tt.wantCode, status.Code(err))
			assert.Equal(t, tt.wantCode == codes.OK, called)
		})
	}
}

func TestInterceptor_BadRequestDetails(t *testing.T) {
	i, err := New(WithFallback(nil))
	require.NoError(t, err)

	err = i.Check(checked{&wrapperspb.StringValue{}})
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.InvalidArgument, st.Code())

	var br *errdetails.BadRequest
	for _, d := range st.Details() {
		if v, ok := d.(*errdetails.BadRequest); ok {
			br = v
		}
	}
	require.NotNil(t, br)
	require.Len(t, br.GetFieldViolations(), 1)
	assert.Equal(t, "value", br.GetFieldViolations()[0].GetField())
	assert.Equal(t, "value must be set", br.GetFieldViolations()[0].GetDescription())
}

type fakeStream struct {
	grpc.ServerStream
	next proto.Message
}

func (f *fakeStream) RecvMsg(m interface{}) error {
	proto.Merge(m.(checked).StringValue, f.next)
	return nil
}

func TestInterceptor_Stream(t *testing.T) {
	i, err := New()
	require.NoError(t, err)
	stream := i.Stream()
	info := &grpc.StreamServerInfo{FullMethod: "/test.Service/Stream"}

	handler := func(srv interface{}, ss grpc.ServerStream) error {
		return ss.RecvMsg(checked{&wrapperspb.StringValue{}})
	}

	err = stream(nil, &fakeStream{next: wrapperspb.String("ok")}, info, handler)
	assert.NoError(t, err)

	err = stream(nil, &fakeStream{next: &wrapperspb.StringValue{}}, info, handler)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
