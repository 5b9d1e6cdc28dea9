// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Service and method names on the wire.
const (
	ServiceName   = "casauth.v1.Resolver"
	ResolveMethod = "/" + ServiceName + "/Resolve"
)

// Message field names. Requests carry username and password; responses
// carry outcome and username, plus principal on success.
const (
	FieldUsername  = "username"
	FieldPassword  = "password"
	FieldOutcome   = "outcome"
	FieldPrincipal = "principal"
)

// ResolverService is the server API for casauth.v1.Resolver.
type ResolverService interface {
	Resolve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ResolverServiceDesc describes casauth.v1.Resolver. Messages are
// google.protobuf.Struct values, so the default proto codec handles them.
var ResolverServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ResolverService)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Resolve",
			Handler:    resolveHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "casauth/v1/resolver.proto",
}

// RegisterResolverService registers srv with s.
func RegisterResolverService(s grpc.ServiceRegistrar, srv ResolverService) {
	s.RegisterService(&ResolverServiceDesc, srv)
}

func resolveHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ResolverService).Resolve(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ResolveMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ResolverService).Resolve(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
