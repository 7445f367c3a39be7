package wire

import (
	"context"

	"google.golang.org/grpc"
)

const (
	engineSubmitOrderMethod = "/marketsim.Engine/SubmitOrder"
	engineGetQuoteMethod    = "/marketsim.Engine/GetQuote"
	engineGetDepthMethod    = "/marketsim.Engine/GetDepth"
)

// EngineServer is the server-side contract for the Engine service.
type EngineServer interface {
	SubmitOrder(ctx context.Context, req *SubmitOrderRequest) (*SubmitOrderResponse, error)
	GetQuote(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error)
	GetDepth(ctx context.Context, req *DepthRequest) (*DepthResponse, error)
}

// RegisterEngineServer wires srv into a gRPC registrar.
func RegisterEngineServer(s grpc.ServiceRegistrar, srv EngineServer) {
	s.RegisterService(&engineServiceDesc, srv)
}

var engineServiceDesc = grpc.ServiceDesc{
	ServiceName: "marketsim.Engine",
	HandlerType: (*EngineServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SubmitOrder",
			Handler:    engineSubmitOrderHandler,
		},
		{
			MethodName: "GetQuote",
			Handler:    engineGetQuoteHandler,
		},
		{
			MethodName: "GetDepth",
			Handler:    engineGetDepthHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/wire/marketsim.proto",
}

func engineSubmitOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SubmitOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EngineServer).SubmitOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: engineSubmitOrderMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EngineServer).SubmitOrder(ctx, req.(*SubmitOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func engineGetQuoteHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(QuoteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EngineServer).GetQuote(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: engineGetQuoteMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EngineServer).GetQuote(ctx, req.(*QuoteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func engineGetDepthHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(DepthRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EngineServer).GetDepth(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: engineGetDepthMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EngineServer).GetDepth(ctx, req.(*DepthRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// EngineClient is the client-side contract for the Engine service.
type EngineClient interface {
	SubmitOrder(ctx context.Context, req *SubmitOrderRequest, opts ...grpc.CallOption) (*SubmitOrderResponse, error)
	GetQuote(ctx context.Context, req *QuoteRequest, opts ...grpc.CallOption) (*QuoteResponse, error)
	GetDepth(ctx context.Context, req *DepthRequest, opts ...grpc.CallOption) (*DepthResponse, error)
}

type engineClient struct {
	cc grpc.ClientConnInterface
}

// NewEngineClient builds a client over cc. Calls are made with this
// package's codec, so the server must have it registered too.
func NewEngineClient(cc grpc.ClientConnInterface) EngineClient {
	return &engineClient{cc: cc}
}

func (c *engineClient) SubmitOrder(ctx context.Context, req *SubmitOrderRequest, opts ...grpc.CallOption) (*SubmitOrderResponse, error) {
	out := new(SubmitOrderResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, engineSubmitOrderMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *engineClient) GetQuote(ctx context.Context, req *QuoteRequest, opts ...grpc.CallOption) (*QuoteResponse, error) {
	out := new(QuoteResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, engineGetQuoteMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *engineClient) GetDepth(ctx context.Context, req *DepthRequest, opts ...grpc.CallOption) (*DepthResponse, error) {
	out := new(DepthResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, engineGetDepthMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
