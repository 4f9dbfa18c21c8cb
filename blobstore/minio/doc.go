// Package minio stores device images and snapshots in a MinIO bucket.
//
// Any S3-compatible server the MinIO client speaks to works (Ceph, Garage,
// SeaweedFS). Use package s3 instead when the AWS configuration chain is wanted.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	})
//	if err != nil {
//	    return err
//	}
//
//	store := minioblob.NewStore(client, "volumes", minioblob.WithPrefix("team-a/"))
//	if err := store.EnsureBucket(ctx); err != nil {
//	    return err
//	}
//	dev, err := blockdev.OpenBlob(ctx, store, "disk.img", 2048)
//
// Block reads become ranged GETs of exactly one block. Sync uploads the whole
// image with a single PutObject.
package minio
