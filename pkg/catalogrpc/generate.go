// Package catalogrpc holds the generated catalog.v1 ProductAuthority contract
// shared by the order service client and the product service.
package catalogrpc

//go:generate protoc -I ../../proto --go_out=../.. --go_opt=module=github.com/dmehra2102/orderflow --go-grpc_out=../.. --go-grpc_opt=module=github.com/dmehra2102/orderflow catalog/v1/catalog.proto
