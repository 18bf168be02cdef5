package pluginhost

// sharedLibraryExt is the platform-native shared-object extension (spec
// §6: "platform-native shared-object extension"). The host itself only
// ever targets Linux real-time deployments (see internal/rtbackend), so
// this is not parameterized per-GOOS.
const sharedLibraryExt = ".so"
