// Package s3 exposes a prefix of an Amazon S3 (or S3-compatible) bucket as a
// read-only fs.FS.
//
// It lets production servers serve the built client bundle from object
// storage instead of the local dist/client directory:
//
//	var cfg s3.Config
//	config.MustLoad(&cfg) // ASSETS_S3_BUCKET, ASSETS_S3_PREFIX, ...
//
//	assets, err := s3.NewFS(ctx, cfg)
//	if err != nil {
//		return err
//	}
//
//	ssr.Mount(ctx, r, bridge, mountCfg, ssr.WithAssets(assets))
//
// Missing keys are reported as fs.ErrNotExist and access errors as
// fs.ErrPermission, so file servers answer 404 and 403. A name that is not an
// object but has objects below it is a directory. Objects are buffered in
// memory on Open and capped by Config.MaxObjectSize.
package s3
