// Package vecmatch embeds the résumé/job matching pipeline in a Go program without the HTTP service.
//
// The client owns one collection per entity type and runs the same adaptive encoder,
// section assembler and scoring strategies as the server:
//
//	client, _ := vecmatch.New(ctx,
//	    vecmatch.WithQdrant("localhost:6334", ""),
//	    vecmatch.WithEmbedder(myEmbedder),
//	    vecmatch.WithVectorDimensions(768),
//	)
//	defer client.Close()
//	_ = client.CreateCollections(ctx)
//
//	job, _ := client.Embed(ctx, vecmatch.EntityJob,
//	    map[string]any{"skills": "go, kafka", "experience": "5 years backend"},
//	    map[string]any{"job_id": "j-42"},
//	)
//	res, _ := client.Search(ctx, vecmatch.EntityResume, job.Embeddings["skills"], "skills", 10, nil)
//
// WithMemory keeps everything in process, which is handy for tests and small datasets.
package vecmatch
