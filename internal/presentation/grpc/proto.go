package grpc

// proto.go hand-writes the service plumbing protoc-gen-go-grpc would produce for
// strokeguard.risk.v1.RiskService. Messages are plain structs carried by the JSON codec.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Fully-qualified method names.
const (
	RiskServiceName                                   = "strokeguard.risk.v1.RiskService"
	RiskService_AssessPatient_FullMethodName          = "/strokeguard.risk.v1.RiskService/AssessPatient"
	RiskService_GetAssessment_FullMethodName          = "/strokeguard.risk.v1.RiskService/GetAssessment"
	RiskService_ListPatientAssessments_FullMethodName = "/strokeguard.risk.v1.RiskService/ListPatientAssessments"
	RiskService_GetModelInfo_FullMethodName           = "/strokeguard.risk.v1.RiskService/GetModelInfo"
)

// RiskServiceServer is the server API for RiskService.
type RiskServiceServer interface {
	AssessPatient(context.Context, *AssessPatientRequest) (*AssessPatientResponse, error)
	GetAssessment(context.Context, *GetAssessmentRequest) (*GetAssessmentResponse, error)
	ListPatientAssessments(context.Context, *ListPatientAssessmentsRequest) (*ListPatientAssessmentsResponse, error)
	GetModelInfo(context.Context, *GetModelInfoRequest) (*GetModelInfoResponse, error)
	mustEmbedUnimplementedRiskServiceServer()
}

// UnimplementedRiskServiceServer provides forward-compatible default implementations.
type UnimplementedRiskServiceServer struct{}

func (UnimplementedRiskServiceServer) AssessPatient(context.Context, *AssessPatientRequest) (*AssessPatientResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method AssessPatient not implemented")
}
func (UnimplementedRiskServiceServer) GetAssessment(context.Context, *GetAssessmentRequest) (*GetAssessmentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetAssessment not implemented")
}
func (UnimplementedRiskServiceServer) ListPatientAssessments(context.Context, *ListPatientAssessmentsRequest) (*ListPatientAssessmentsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListPatientAssessments not implemented")
}
func (UnimplementedRiskServiceServer) GetModelInfo(context.Context, *GetModelInfoRequest) (*GetModelInfoResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetModelInfo not implemented")
}
func (UnimplementedRiskServiceServer) mustEmbedUnimplementedRiskServiceServer() {}

// RegisterRiskServiceServer registers the RiskServiceServer with the gRPC server.
func RegisterRiskServiceServer(s grpclib.ServiceRegistrar, srv RiskServiceServer) {
	s.RegisterService(&riskServiceDesc, srv)
}

var riskServiceDesc = grpclib.ServiceDesc{
	ServiceName: RiskServiceName,
	HandlerType: (*RiskServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "AssessPatient", Handler: unaryHandler(RiskService_AssessPatient_FullMethodName, RiskServiceServer.AssessPatient)},
		{MethodName: "GetAssessment", Handler: unaryHandler(RiskService_GetAssessment_FullMethodName, RiskServiceServer.GetAssessment)},
		{MethodName: "ListPatientAssessments", Handler: unaryHandler(RiskService_ListPatientAssessments_FullMethodName, RiskServiceServer.ListPatientAssessments)},
		{MethodName: "GetModelInfo", Handler: unaryHandler(RiskService_GetModelInfo_FullMethodName, RiskServiceServer.GetModelInfo)},
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "strokeguard/risk/v1/risk.proto",
}

// unaryHandler decodes the request and routes it through the server's interceptor chain.
func unaryHandler[Req, Resp any](
	fullMethod string,
	call func(RiskServiceServer, context.Context, *Req) (*Resp, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RiskServiceServer), ctx, in)
		}
		info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RiskServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RiskServiceClient is the client API for RiskService.
type RiskServiceClient struct {
	cc grpclib.ClientConnInterface
}

// NewRiskServiceClient creates a client that encodes messages with the JSON codec.
func NewRiskServiceClient(cc grpclib.ClientConnInterface) *RiskServiceClient {
	return &RiskServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpclib.ClientConnInterface, method string, in any, opts []grpclib.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpclib.CallOption{grpclib.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RiskServiceClient) AssessPatient(ctx context.Context, in *AssessPatientRequest, opts ...grpclib.CallOption) (*AssessPatientResponse, error) {
	return invoke[AssessPatientResponse](ctx, c.cc, RiskService_AssessPatient_FullMethodName, in, opts)
}

func (c *RiskServiceClient) GetAssessment(ctx context.Context, in *GetAssessmentRequest, opts ...grpclib.CallOption) (*GetAssessmentResponse, error) {
	return invoke[GetAssessmentResponse](ctx, c.cc, RiskService_GetAssessment_FullMethodName, in, opts)
}

func (c *RiskServiceClient) ListPatientAssessments(ctx context.Context, in *ListPatientAssessmentsRequest, opts ...grpclib.CallOption) (*ListPatientAssessmentsResponse, error) {
	return invoke[ListPatientAssessmentsResponse](ctx, c.cc, RiskService_ListPatientAssessments_FullMethodName, in, opts)
}

func (c *RiskServiceClient) GetModelInfo(ctx context.Context, in *GetModelInfoRequest, opts ...grpclib.CallOption) (*GetModelInfoResponse, error) {
	return invoke[GetModelInfoResponse](ctx, c.cc, RiskService_GetModelInfo_FullMethodName, in, opts)
}
