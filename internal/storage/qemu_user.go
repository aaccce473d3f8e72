package storage

import (
	"fmt"
	"os/user"
	"strings"
	"sync"

	"gopkg.in/ini.v1"
)

// qemuConfPath is the libvirt qemu driver config naming the qemu process user.
var qemuConfPath = "/etc/libvirt/qemu.conf"

var (
	qemuUID  string
	qemuGID  string
	qemuOnce sync.Once
	qemuErr  error
)

// GetQEMUUserGroup returns the UID and GID uploaded volumes are owned by,
// so the qemu process can read them. It tries, in order:
//  1. user/group configured in qemu.conf
//  2. the common qemu and libvirt-qemu accounts
//  3. 107:107, the Fedora/RHEL default
//
// The result is cached after the first call.
func GetQEMUUserGroup() (uid, gid string, err error) {
	qemuOnce.Do(func() {
		qemuUID, qemuGID, qemuErr = lookupQEMUUserGroup(qemuConfPath)
	})
	return qemuUID, qemuGID, qemuErr
}

func lookupQEMUUserGroup(confPath string) (string, string, error) {
	username, groupname := readQEMUConf(confPath)

	if username != "" {
		if u, err := user.Lookup(username); err == nil {
			gid := u.Gid
			if groupname != "" {
				if g, err := user.LookupGroup(groupname); err == nil {
					gid = g.Gid
				}
			}
			return u.Uid, gid, nil
		}
	}

	for _, name := range []string{"qemu", "libvirt-qemu"} {
		if u, err := user.Lookup(name); err == nil {
			return u.Uid, u.Gid, nil
		}
	}

	return "107", "107", fmt.Errorf("could not determine QEMU user/group, using fallback UID/GID 107")
}

// readQEMUConf extracts the user and group settings from qemu.conf.
// Missing files or settings yield empty strings.
func readQEMUConf(path string) (username, groupname string) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		Loose:                   true,
		IgnoreInlineComment:     true,
		AllowBooleanKeys:        true,
		SkipUnrecognizableLines: true,
	}, path)
	if err != nil {
		return "", ""
	}

	sec := cfg.Section(ini.DefaultSection)
	unquote := func(s string) string { return strings.Trim(strings.TrimSpace(s), `"'`) }
	return unquote(sec.Key("user").String()), unquote(sec.Key("group").String())
}
