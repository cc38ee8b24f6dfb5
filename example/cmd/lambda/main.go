// Command lambda serves the example app from AWS Lambda.
package main

import (
	"context"
	"log"
	"os"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/remastered-go/remastered/example/site"
	"github.com/remastered-go/remastered/pkg/adapter/lambda"
)

func main() {
	ctx := context.Background()
	root := os.Getenv("LAMBDA_TASK_ROOT")
	if root == "" {
		root = "."
	}
	opts, err := site.Serverless(ctx, root)
	if err != nil {
		log.Fatal(err)
	}
	h, err := lambda.NewHandler(ctx, opts)
	if err != nil {
		log.Fatal(err)
	}
	awslambda.Start(h.Handle)
}
