// Package storage stages install kernels and initrds in libvirt storage.
//
// A kernel fetched to the local scratch directory is only usable by the
// hypervisor when both run on the same host and the file sits in a
// directory the qemu process can read. In every other case the files are
// uploaded as raw volumes into a dedicated directory pool:
//
//   - boot-scratch: dir pool rooted at /var/lib/libvirt/boot
//
// Uploaded volumes are temporary. The caller records the returned volume
// references and removes them with DeleteVolumes once the install phase is
// over.
//
// Consumer-Side Interface:
//
// LibvirtClient lists only the go-libvirt calls this package makes, so
// tests substitute a hand-written mock and callers pass the live
// connection:
//
//	client, err := libvirt.Connect(uri, 0)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	mgr := storage.NewManager(client.Libvirt(), logger)
//	res, err := mgr.UploadKernelInitrd(ctx, storage.UploadRequest{
//	    Kernel:     kernel,
//	    Initrd:     initrd,
//	    ScratchDir: scratchDir,
//	    Remote:     client.IsRemote(),
//	})
//	if err != nil {
//	    return err
//	}
//	defer mgr.DeleteVolumes(ctx, res.Volumes)
package storage
